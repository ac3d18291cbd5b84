package matching

import (
	"sort"
	"strings"
)

type CatalogEntry struct {
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Synonyms    []string `json:"synonyms,omitempty"`
	Trending    bool     `json:"trending"`
	DemandScore int      `json:"demand_score"`
}

// Catalog is an immutable lookup of canonical skill names. Safe for concurrent reads.
type Catalog struct {
	byKey    map[string]CatalogEntry
	keywords []string
}

var defaultKeywords = []string{
	"javascript", "python", "java", "typescript", "react", "node.js", "angular",
	"vue.js", "php", "c++", "c#", "ruby", "golang", "rust", "swift", "kotlin",
	"express", "django", "flask", "spring", "laravel", "rails", "next.js",
	"tailwind", "bootstrap",
	"mysql", "postgresql", "mongodb", "redis", "elasticsearch", "sqlite", "firebase", "dynamodb",
	"aws", "azure", "gcp", "docker", "kubernetes", "jenkins", "github actions",
	"terraform", "ansible", "ci/cd", "microservices",
	"figma", "photoshop", "sketch", "ui design", "ux design", "wireframing",
	"prototyping", "user research", "design systems",
	"machine learning", "deep learning", "tensorflow", "pytorch", "scikit-learn",
	"pandas", "numpy", "data analysis",
	"project management", "agile", "scrum", "leadership", "marketing", "sales", "strategy",
}

func DefaultCatalogEntries() []CatalogEntry {
	return []CatalogEntry{
		{Name: "JavaScript", Category: "programming", Synonyms: []string{"js", "ecmascript"}, Trending: true, DemandScore: 90},
		{Name: "Python", Category: "programming", Synonyms: []string{"py"}, Trending: true, DemandScore: 95},
		{Name: "React", Category: "frontend", Synonyms: []string{"reactjs", "react.js"}, Trending: true, DemandScore: 85},
		{Name: "Node.js", Category: "backend", Synonyms: []string{"node", "nodejs"}, Trending: true, DemandScore: 80},
		{Name: "Machine Learning", Category: "ai", Synonyms: []string{"ml"}, Trending: true, DemandScore: 88},
		{Name: "UI/UX Design", Category: "design", Synonyms: []string{"ui design", "ux design"}, Trending: true, DemandScore: 75},
		{Name: "Go", Category: "programming", Synonyms: []string{"golang"}, Trending: true, DemandScore: 78},
		{Name: "PostgreSQL", Category: "database", Synonyms: []string{"postgres"}, DemandScore: 70},
		{Name: "Docker", Category: "devops", DemandScore: 72},
		{Name: "Kubernetes", Category: "devops", Synonyms: []string{"k8s"}, Trending: true, DemandScore: 76},
	}
}

func DefaultCatalog() *Catalog {
	return NewCatalog(DefaultCatalogEntries())
}

func NewCatalog(entries []CatalogEntry) *Catalog {
	c := &Catalog{byKey: make(map[string]CatalogEntry, len(entries)*2)}

	seen := map[string]struct{}{}
	addKeyword := func(k string) {
		if k == "" {
			return
		}
		if _, ok := seen[k]; ok {
			return
		}
		seen[k] = struct{}{}
		c.keywords = append(c.keywords, k)
	}

	for _, e := range entries {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			continue
		}
		e.Name = name
		if e.Category == "" {
			e.Category = "general"
		}
		if e.DemandScore == 0 {
			e.DemandScore = 50
		}

		key := strings.ToLower(name)
		c.byKey[key] = e
		addKeyword(key)
		for _, syn := range e.Synonyms {
			sk := strings.ToLower(strings.TrimSpace(syn))
			if sk == "" {
				continue
			}
			if _, exists := c.byKey[sk]; !exists {
				c.byKey[sk] = e
			}
			addKeyword(sk)
		}
	}
	for _, k := range defaultKeywords {
		addKeyword(k)
	}
	sort.Strings(c.keywords)
	return c
}

// Canonical resolves a name or synonym to its canonical spelling. Unknown names are
// returned trimmed.
func (c *Catalog) Canonical(name string) string {
	name = strings.TrimSpace(name)
	if c == nil || name == "" {
		return name
	}
	if e, ok := c.byKey[strings.ToLower(name)]; ok {
		return e.Name
	}
	return name
}

func (c *Catalog) Lookup(name string) (CatalogEntry, bool) {
	if c == nil {
		return CatalogEntry{}, false
	}
	e, ok := c.byKey[strings.ToLower(strings.TrimSpace(name))]
	return e, ok
}

func (c *Catalog) Keywords() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.keywords))
	copy(out, c.keywords)
	return out
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	names := map[string]struct{}{}
	for _, e := range c.byKey {
		names[e.Name] = struct{}{}
	}
	return len(names)
}
