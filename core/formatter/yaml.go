package formatter

import (
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLFormatter writes a YAML sequence of mappings with keys in column order.
type YAMLFormatter struct{}

func (YAMLFormatter) Name() string { return "yaml" }

func (YAMLFormatter) FormatList(w io.Writer, columns []string, records []map[string]any, opts FormatOptions) error {
	seq := &yaml.Node{Kind: yaml.SequenceNode}
	for _, rec := range records {
		m := &yaml.Node{Kind: yaml.MappingNode}
		for _, col := range columns {
			val := &yaml.Node{}
			if err := val.Encode(rec[col]); err != nil {
				return err
			}
			m.Content = append(m.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: col}, val)
		}
		seq.Content = append(seq.Content, m)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(seq); err != nil {
		return err
	}
	return enc.Close()
}
