// Package fields holds the per-domain question and template table used to
// build roadmap generation prompts.
package fields

import (
	_ "embed"
	"os"
	"sort"
	"strings"
	"unicode"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultKey names the row used for fields without their own configuration.
const DefaultKey = "default"

//go:embed fields.yaml
var embedded []byte

type Question struct {
	Key  string `yaml:"key"`
	Text string `yaml:"text"`
}

type Config struct {
	Key       string     `yaml:"-"`
	Name      string     `yaml:"name"`
	Questions []Question `yaml:"questions"`
	Template  string     `yaml:"template"`
}

type Table struct {
	rows map[string]Config
}

// Load reads the embedded table and, when path is set, merges the rows of
// that file over it.
func Load(path string) (*Table, error) {
	rows, err := decode(embedded)
	if err != nil {
		return nil, errors.Wrap(err, "embedded field table")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "read field table %s", path)
		}
		extra, err := decode(data)
		if err != nil {
			return nil, errors.Wrapf(err, "field table %s", path)
		}
		for k, v := range extra {
			rows[k] = v
		}
	}
	return newTable(rows)
}

// Parse builds a table from YAML alone.
func Parse(data []byte) (*Table, error) {
	rows, err := decode(data)
	if err != nil {
		return nil, err
	}
	return newTable(rows)
}

func decode(data []byte) (map[string]Config, error) {
	raw := map[string]Config{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "decode field table")
	}
	rows := make(map[string]Config, len(raw))
	for k, v := range raw {
		key := Normalize(k)
		if key == "" {
			return nil, errors.Errorf("field table: empty key %q", k)
		}
		v.Key = key
		if v.Name == "" {
			v.Name = DisplayName(key)
		}
		rows[key] = v
	}
	return rows, nil
}

func newTable(rows map[string]Config) (*Table, error) {
	def, ok := rows[DefaultKey]
	if !ok {
		return nil, errors.New("field table has no default row")
	}
	if strings.TrimSpace(def.Template) == "" {
		return nil, errors.New("default field row has no template")
	}
	return &Table{rows: rows}, nil
}

// Lookup returns the row for field. Unknown fields get the default row with
// the field's display name substituted into every question.
func (t *Table) Lookup(field string) Config {
	key := Normalize(field)
	if c, ok := t.rows[key]; ok && key != DefaultKey {
		return c
	}
	def := t.rows[DefaultKey]
	name := DisplayName(key)
	if name == "" {
		name = def.Name
	}
	out := Config{Key: key, Name: name, Template: def.Template}
	if out.Key == "" {
		out.Key = DefaultKey
	}
	out.Questions = make([]Question, len(def.Questions))
	for i, q := range def.Questions {
		out.Questions[i] = Question{Key: q.Key, Text: strings.ReplaceAll(q.Text, "{field}", name)}
	}
	return out
}

// Known reports whether field has its own row.
func (t *Table) Known(field string) bool {
	key := Normalize(field)
	_, ok := t.rows[key]
	return ok && key != DefaultKey
}

// Match finds the configured field named inside a free-text answer, e.g.
// "data science, ideally in healthcare" yields "data_science". The field that
// appears first wins; ties go to the longer key.
func (t *Table) Match(answer string) (string, bool) {
	text := "_" + Normalize(answer) + "_"
	best, at := "", -1
	for _, key := range t.Keys() {
		i := strings.Index(text, "_"+key+"_")
		if i < 0 {
			continue
		}
		if at < 0 || i < at || (i == at && len(key) > len(best)) {
			best, at = key, i
		}
	}
	return best, at >= 0
}

func (t *Table) Questions(field string) []Question {
	return t.Lookup(field).Questions
}

// Keys lists the configured fields, default excluded, in sorted order.
func (t *Table) Keys() []string {
	keys := make([]string, 0, len(t.rows))
	for k := range t.rows {
		if k != DefaultKey {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Normalize lower-cases name and collapses every run of non-alphanumeric
// characters into a single underscore.
func Normalize(name string) string {
	var sb strings.Builder
	pending := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pending && sb.Len() > 0 {
				sb.WriteByte('_')
			}
			pending = false
			sb.WriteRune(r)
			continue
		}
		pending = true
	}
	return sb.String()
}

func DisplayName(name string) string {
	words := strings.Split(Normalize(name), "_")
	out := words[:0]
	for _, w := range words {
		if w == "" {
			continue
		}
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		out = append(out, string(r))
	}
	return strings.Join(out, " ")
}
