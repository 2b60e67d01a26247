package normalize

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/amishk599/jobpulse/internal/model"
)

// Term is one vocabulary entry. Aliases always match case-insensitively.
// The canonical Name matches case-insensitively unless CaseSensitive is set,
// which is needed for short names like "Go" and "R" that collide with
// ordinary words.
type Term struct {
	Name          string
	Category      string
	Aliases       []string
	CaseSensitive bool
}

type vocabEntry struct {
	skill         model.Skill
	pattern       *regexp.Regexp
	caseSensitive bool
}

// Vocabulary matches known skill terms in free text. Matches require a term
// boundary on both sides; '+', '#' and '.' count as part of a term so that
// "C++", "C#" and ".NET" match whole and "js" does not match inside "node.js".
type Vocabulary struct {
	entries []vocabEntry
	lookup  map[string]model.Skill // lower-cased name or alias -> skill
}

const (
	leftBoundary  = `(?:^|[^\w+#.])`
	rightBoundary = `(?:$|[^\w+#&'])`
)

// NewVocabulary builds a vocabulary from terms. Later terms with the same
// name replace earlier ones.
func NewVocabulary(terms []Term) *Vocabulary {
	v := &Vocabulary{lookup: make(map[string]model.Skill)}
	for _, t := range terms {
		v.Add(t)
	}
	return v
}

// DefaultVocabulary returns the built-in vocabulary extended with extra.
func DefaultVocabulary(extra ...Term) *Vocabulary {
	return NewVocabulary(append(append([]Term{}, defaultTerms...), extra...))
}

// Add inserts or replaces a term.
func (v *Vocabulary) Add(t Term) {
	name := strings.TrimSpace(t.Name)
	if name == "" {
		return
	}
	category := t.Category
	if category == "" {
		category = model.CategoryOther
	}
	skill := model.Skill{Name: name, Category: category}

	var alts []string
	if t.CaseSensitive {
		alts = append(alts, regexp.QuoteMeta(name))
	} else {
		alts = append(alts, "(?i:"+regexp.QuoteMeta(name)+")")
	}
	for _, a := range t.Aliases {
		if a = strings.TrimSpace(a); a != "" {
			alts = append(alts, "(?i:"+regexp.QuoteMeta(a)+")")
		}
	}
	pattern := regexp.MustCompile(leftBoundary + "(" + strings.Join(alts, "|") + ")" + rightBoundary)

	for i, e := range v.entries {
		if strings.EqualFold(e.skill.Name, name) {
			v.entries = append(v.entries[:i], v.entries[i+1:]...)
			break
		}
	}
	v.entries = append(v.entries, vocabEntry{skill: skill, pattern: pattern, caseSensitive: t.CaseSensitive})

	v.lookup[strings.ToLower(name)] = skill
	for _, a := range t.Aliases {
		if a = strings.TrimSpace(a); a != "" {
			v.lookup[strings.ToLower(a)] = skill
		}
	}
}

// Lookup resolves a single term or alias to its canonical skill.
func (v *Vocabulary) Lookup(term string) (model.Skill, bool) {
	s, ok := v.lookup[strings.ToLower(strings.TrimSpace(term))]
	return s, ok
}

// Len returns the number of distinct skills.
func (v *Vocabulary) Len() int { return len(v.entries) }

// Match returns every vocabulary skill mentioned in text, once each, sorted
// by name.
func (v *Vocabulary) Match(text string) []model.Skill {
	if text == "" {
		return nil
	}
	var out []model.Skill
	for _, e := range v.entries {
		if e.matches(text) {
			out = append(out, e.skill)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (e vocabEntry) matches(text string) bool {
	if !e.caseSensitive {
		return e.pattern.MatchString(text)
	}
	for _, loc := range e.pattern.FindAllStringSubmatchIndex(text, -1) {
		start, end := loc[2], loc[3]
		if text[start:end] == e.skill.Name && sentenceVerb(text, start, end) {
			continue
		}
		return true
	}
	return false
}

// sentenceVerb reports whether the term at text[start:end] opens a sentence
// or list item and is followed by a lower-case word, as in "Go beyond".
func sentenceVerb(text string, start, end int) bool {
	before := strings.TrimRight(text[:start], " \t")
	if before != "" {
		switch before[len(before)-1] {
		case '.', '!', '?', '\n', '\r', '-', '*', ':':
		default:
			if !strings.HasSuffix(before, "•") {
				return false
			}
		}
	}
	after := strings.TrimLeft(text[end:], " \t")
	r, _ := utf8.DecodeRuneInString(after)
	return unicode.IsLower(r)
}

// skillSet collects skills keyed case-insensitively by name. The first
// spelling seen wins.
type skillSet map[string]model.Skill

func (s skillSet) add(skills ...model.Skill) {
	for _, sk := range skills {
		key := strings.ToLower(sk.Name)
		if _, ok := s[key]; !ok {
			s[key] = sk
		}
	}
}

func (s skillSet) sorted() []model.Skill {
	out := make([]model.Skill, 0, len(s))
	for _, sk := range s {
		out = append(out, sk)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

var defaultTerms = []Term{
	// languages
	{Name: "Python", Category: model.CategoryLanguage},
	{Name: "Java", Category: model.CategoryLanguage},
	{Name: "JavaScript", Category: model.CategoryLanguage, Aliases: []string{"js", "ecmascript"}},
	{Name: "TypeScript", Category: model.CategoryLanguage},
	{Name: "C++", Category: model.CategoryLanguage, Aliases: []string{"cpp"}},
	{Name: "C#", Category: model.CategoryLanguage, Aliases: []string{"csharp"}},
	{Name: "Ruby", Category: model.CategoryLanguage},
	{Name: "Go", Category: model.CategoryLanguage, Aliases: []string{"golang"}, CaseSensitive: true},
	{Name: "PHP", Category: model.CategoryLanguage},
	{Name: "Swift", Category: model.CategoryLanguage},
	{Name: "Kotlin", Category: model.CategoryLanguage},
	{Name: "Rust", Category: model.CategoryLanguage},
	{Name: "Scala", Category: model.CategoryLanguage},
	{Name: "Perl", Category: model.CategoryLanguage},
	{Name: "R", Category: model.CategoryLanguage, Aliases: []string{"rstudio"}, CaseSensitive: true},
	{Name: "Bash", Category: model.CategoryLanguage, Aliases: []string{"shell scripting"}},
	{Name: "SQL", Category: model.CategoryLanguage},
	{Name: "HTML", Category: model.CategoryLanguage, Aliases: []string{"html5"}},
	{Name: "CSS", Category: model.CategoryLanguage, Aliases: []string{"css3"}},
	{Name: "Elixir", Category: model.CategoryLanguage},

	// frameworks
	{Name: "React", Category: model.CategoryFramework, Aliases: []string{"react.js", "reactjs"}},
	{Name: "Angular", Category: model.CategoryFramework, Aliases: []string{"angularjs"}},
	{Name: "Vue", Category: model.CategoryFramework, Aliases: []string{"vue.js", "vuejs"}},
	{Name: "Django", Category: model.CategoryFramework},
	{Name: "Flask", Category: model.CategoryFramework},
	{Name: "Spring", Category: model.CategoryFramework, Aliases: []string{"spring boot"}},
	{Name: "Express", Category: model.CategoryFramework, Aliases: []string{"express.js", "expressjs"}, CaseSensitive: true},
	{Name: "Node.js", Category: model.CategoryFramework, Aliases: []string{"nodejs", "node js"}},
	{Name: "Laravel", Category: model.CategoryFramework},
	{Name: "Rails", Category: model.CategoryFramework, Aliases: []string{"ruby on rails", "ror"}},
	{Name: "ASP.NET", Category: model.CategoryFramework},
	{Name: ".NET", Category: model.CategoryFramework, Aliases: []string{"dotnet", ".net core"}},
	{Name: "TensorFlow", Category: model.CategoryFramework},
	{Name: "PyTorch", Category: model.CategoryFramework},
	{Name: "Keras", Category: model.CategoryFramework},
	{Name: "pandas", Category: model.CategoryFramework},
	{Name: "NumPy", Category: model.CategoryFramework},
	{Name: "scikit-learn", Category: model.CategoryFramework, Aliases: []string{"sklearn"}},
	{Name: "Bootstrap", Category: model.CategoryFramework},
	{Name: "jQuery", Category: model.CategoryFramework},
	{Name: "Symfony", Category: model.CategoryFramework},
	{Name: "FastAPI", Category: model.CategoryFramework},
	{Name: "Next.js", Category: model.CategoryFramework, Aliases: []string{"nextjs"}},
	{Name: "gRPC", Category: model.CategoryFramework},
	{Name: "GraphQL", Category: model.CategoryFramework},

	// databases
	{Name: "MySQL", Category: model.CategoryDatabase},
	{Name: "PostgreSQL", Category: model.CategoryDatabase, Aliases: []string{"postgres", "psql"}},
	{Name: "MongoDB", Category: model.CategoryDatabase, Aliases: []string{"mongo"}},
	{Name: "SQLite", Category: model.CategoryDatabase},
	{Name: "Oracle", Category: model.CategoryDatabase},
	{Name: "SQL Server", Category: model.CategoryDatabase, Aliases: []string{"mssql"}},
	{Name: "Redis", Category: model.CategoryDatabase},
	{Name: "Elasticsearch", Category: model.CategoryDatabase, Aliases: []string{"elastic search"}},
	{Name: "DynamoDB", Category: model.CategoryDatabase},
	{Name: "Cassandra", Category: model.CategoryDatabase},
	{Name: "MariaDB", Category: model.CategoryDatabase},
	{Name: "Neo4j", Category: model.CategoryDatabase},
	{Name: "CouchDB", Category: model.CategoryDatabase},
	{Name: "Firebase", Category: model.CategoryDatabase},
	{Name: "ClickHouse", Category: model.CategoryDatabase},
	{Name: "Kafka", Category: model.CategoryDatabase, Aliases: []string{"apache kafka"}},

	// cloud
	{Name: "AWS", Category: model.CategoryCloud, Aliases: []string{"amazon web services"}},
	{Name: "Azure", Category: model.CategoryCloud},
	{Name: "GCP", Category: model.CategoryCloud, Aliases: []string{"google cloud", "google cloud platform"}},
	{Name: "Heroku", Category: model.CategoryCloud},
	{Name: "DigitalOcean", Category: model.CategoryCloud},
	{Name: "Kubernetes", Category: model.CategoryCloud, Aliases: []string{"k8s"}},
	{Name: "Docker", Category: model.CategoryCloud},
	{Name: "Terraform", Category: model.CategoryCloud},
	{Name: "Lambda", Category: model.CategoryCloud, Aliases: []string{"aws lambda"}},
	{Name: "EC2", Category: model.CategoryCloud},
	{Name: "S3", Category: model.CategoryCloud},
	{Name: "ECS", Category: model.CategoryCloud},
	{Name: "EKS", Category: model.CategoryCloud},

	// tools
	{Name: "Git", Category: model.CategoryTool},
	{Name: "GitHub", Category: model.CategoryTool},
	{Name: "GitLab", Category: model.CategoryTool},
	{Name: "Jira", Category: model.CategoryTool},
	{Name: "Jenkins", Category: model.CategoryTool},
	{Name: "CircleCI", Category: model.CategoryTool},
	{Name: "Ansible", Category: model.CategoryTool},
	{Name: "Puppet", Category: model.CategoryTool},
	{Name: "Nginx", Category: model.CategoryTool},
	{Name: "Linux", Category: model.CategoryTool},
	{Name: "Agile", Category: model.CategoryTool},
	{Name: "Scrum", Category: model.CategoryTool},
	{Name: "CI/CD", Category: model.CategoryTool, Aliases: []string{"cicd"}},
	{Name: "Prometheus", Category: model.CategoryTool},
	{Name: "Grafana", Category: model.CategoryTool},
}
