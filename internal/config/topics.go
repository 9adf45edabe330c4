package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Topic is one digest section as configured by the operator.
//
// topics:
//   - topic: 배터리 소재
//     related_concepts: 양극재, 음극재, 전해질
//     include_foreign: true
//     foreign_keyword: battery materials
//     foreign_api_key: ...
type Topic struct {
	Topic           string `yaml:"topic"`
	RelatedConcepts string `yaml:"related_concepts"`
	IncludeForeign  bool   `yaml:"include_foreign"`
	ForeignKeyword  string `yaml:"foreign_keyword"`
	ForeignAPIKey   string `yaml:"foreign_api_key"`
}

// SearchKeyword is the foreign query, falling back to the topic itself.
func (t Topic) SearchKeyword() string {
	if kw := strings.TrimSpace(t.ForeignKeyword); kw != "" {
		return kw
	}
	return t.Topic
}

type topicsFile struct {
	Topics []Topic `yaml:"topics"`
}

// LoadTopics reads the topics YAML. Entries without a topic are skipped.
func LoadTopics(path string) ([]Topic, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var tf topicsFile
	if err := yaml.NewDecoder(f).Decode(&tf); err != nil {
		return nil, fmt.Errorf("decoding topics file %s: %w", path, err)
	}

	topics := make([]Topic, 0, len(tf.Topics))
	for _, t := range tf.Topics {
		t.Topic = strings.TrimSpace(t.Topic)
		if t.Topic == "" {
			continue
		}
		topics = append(topics, t)
	}
	return topics, nil
}
