package norma

// Group collects the articles of one norm for the duration of a single
// search response. Flushed into the workspace store when the response
// completes; never mutated afterwards.
type Group struct {
	norma       Norma
	versionDate string
	articles    []Article
}

// NewGroup creates an empty result group for a norm. versionDate is
// non-empty for point-in-time searches and marks the group historical.
func NewGroup(n Norma, versionDate string) *Group {
	return &Group{norma: n, versionDate: versionDate}
}

// Norma returns the group's act descriptor.
func (g *Group) Norma() Norma { return g.norma }

// Key returns the group's derived norm key.
func (g *Group) Key() string { return g.norma.Key() }

// Historical reports whether the group holds point-in-time results.
func (g *Group) Historical() bool { return g.versionDate != "" }

// VersionDate returns the requested point-in-time date, if any.
func (g *Group) VersionDate() string { return g.versionDate }

// Upsert adds or replaces an article by its number, keeping the group
// sorted ascending by numeric article value.
func (g *Group) Upsert(a Article) {
	g.articles = UpsertArticle(g.articles, a)
}

// Articles returns the group's articles in presentation order.
func (g *Group) Articles() []Article { return g.articles }

// Len returns the number of distinct articles in the group.
func (g *Group) Len() int { return len(g.articles) }
