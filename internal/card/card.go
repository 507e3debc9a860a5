package card

// DefaultProjectID is the reserved project that always exists and cannot be deleted.
const DefaultProjectID = "default"

// DefaultProjectName is the display name given to the reserved project.
const DefaultProjectName = "Default"

// Card represents a text clipping captured from a web page.
type Card struct {
	// ID is a ULID that uniquely identifies this card across the whole store
	ID string `json:"id"`

	// CreatedAt is the Unix millisecond timestamp when the card was captured
	CreatedAt int64 `json:"created_at"`

	// Title, URL and Favicon describe the page the clipping came from
	Title   string `json:"title,omitempty"`
	URL     string `json:"url,omitempty"`
	Favicon string `json:"favicon,omitempty"`

	// Snippet is the clipped text; AI actions rewrite it in place
	Snippet string `json:"snippet"`

	// Tags is an unordered set of labels
	Tags []string `json:"tags"`

	// Badges records which actions were applied, in order, without duplicates
	Badges []string `json:"badges"`

	// DOI is the normalized DOI (no resolver prefix, no trailing punctuation)
	DOI string `json:"doi,omitempty"`

	// ProjectID references the owning project
	ProjectID string `json:"project_id"`

	// DeletedAt is the Unix millisecond timestamp of the soft delete (nullable)
	DeletedAt *int64 `json:"deleted_at,omitempty"`

	// Evidence is an optional captured artifact, opaque to the store
	Evidence *Evidence `json:"evidence,omitempty"`
}

// Evidence is an artifact captured alongside a card.
type Evidence struct {
	Kind string `json:"kind"` // "html", "image" or "audio"
	MIME string `json:"mime,omitempty"`
	Data string `json:"data"`
}

// Active reports whether the card is visible in active views.
func (c *Card) Active() bool {
	return c.DeletedAt == nil
}

// NaturalKey returns the key used to cache lens results for this card:
// the DOI when present, the URL otherwise.
func (c *Card) NaturalKey() string {
	if c.DOI != "" {
		return "doi:" + c.DOI
	}
	if c.URL != "" {
		return "url:" + c.URL
	}
	return ""
}

// Clone returns a deep copy of the card.
func (c *Card) Clone() *Card {
	out := *c
	out.Tags = append([]string(nil), c.Tags...)
	out.Badges = append([]string(nil), c.Badges...)
	if c.DeletedAt != nil {
		d := *c.DeletedAt
		out.DeletedAt = &d
	}
	if c.Evidence != nil {
		e := *c.Evidence
		out.Evidence = &e
	}
	return &out
}

// Patch lists the fields of a card that UpdateCard may change.
// Nil fields are left untouched. ID, CreatedAt and DeletedAt are not patchable.
type Patch struct {
	Title     *string
	URL       *string
	Favicon   *string
	Snippet   *string
	Tags      *[]string
	Badges    *[]string // appended to the stored badges, never replacing them
	DOI       *string
	ProjectID *string
	Evidence  *Evidence
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.URL == nil && p.Favicon == nil && p.Snippet == nil &&
		p.Tags == nil && p.Badges == nil && p.DOI == nil && p.ProjectID == nil && p.Evidence == nil
}

// Apply merges the patch into c.
func (p Patch) Apply(c *Card) {
	if p.Title != nil {
		c.Title = *p.Title
	}
	if p.URL != nil {
		c.URL = *p.URL
	}
	if p.Favicon != nil {
		c.Favicon = *p.Favicon
	}
	if p.Snippet != nil {
		c.Snippet = *p.Snippet
	}
	if p.Tags != nil {
		c.Tags = NormalizeTags(*p.Tags)
	}
	if p.Badges != nil {
		c.Badges = AddBadges(c.Badges, *p.Badges...)
	}
	if p.DOI != nil {
		c.DOI = NormalizeDOI(*p.DOI)
	}
	if p.ProjectID != nil {
		c.ProjectID = *p.ProjectID
	}
	if p.Evidence != nil {
		e := *p.Evidence
		c.Evidence = &e
	}
}

// Project is a named grouping of cards.
type Project struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"created_at"`
}

// IsDefault reports whether p is the reserved default project.
func (p *Project) IsDefault() bool {
	return p.ID == DefaultProjectID
}
