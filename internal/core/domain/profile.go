package domain

import (
	"fmt"
	"sort"
	"strings"
)

// IndexProfile bundles a node label with the indexes built over it.
type IndexProfile struct {
	// Name is the profile identifier used on the command line.
	Name string

	// Label is the node label the indexes cover.
	Label string

	// IndexName is the vector index name.
	IndexName string

	// KeywordIndexName is the fulltext index name.
	KeywordIndexName string

	// EmbeddingProperty holds the vector on each node.
	EmbeddingProperty string

	// TextProperties are composed, in order, into the text that is embedded
	// and indexed for keyword search.
	TextProperties []string
}

// Validate checks the profile is usable.
func (p IndexProfile) Validate() error {
	switch {
	case p.Label == "":
		return fmt.Errorf("%w: profile %q has no label", ErrInvalidInput, p.Name)
	case p.IndexName == "":
		return fmt.Errorf("%w: profile %q has no vector index name", ErrInvalidInput, p.Name)
	case p.EmbeddingProperty == "":
		return fmt.Errorf("%w: profile %q has no embedding property", ErrInvalidInput, p.Name)
	case len(p.TextProperties) == 0:
		return fmt.Errorf("%w: profile %q declares no text properties", ErrInvalidInput, p.Name)
	}
	return nil
}

// IsTextProperty reports whether name is one of the declared text properties.
func (p IndexProfile) IsTextProperty(name string) bool {
	for _, tp := range p.TextProperties {
		if tp == name {
			return true
		}
	}
	return false
}

// ComposeText renders the declared text properties of a node in declared
// order, each as "\nname: value". Missing or null values render empty. The
// same text is embedded by backfill and returned by search.
func (p IndexProfile) ComposeText(props map[string]any) string {
	var b strings.Builder
	for _, name := range p.TextProperties {
		b.WriteString("\n")
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(formatValue(props[name]))
	}
	return b.String()
}

// Metadata returns every property that is neither the embedding nor a text property.
func (p IndexProfile) Metadata(props map[string]any) map[string]any {
	meta := make(map[string]any, len(props))
	for k, v := range props {
		if k == p.EmbeddingProperty || p.IsTextProperty(k) {
			continue
		}
		meta[k] = v
	}
	return meta
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}

// Built-in profile names.
const (
	ProfileConfluence = "confluence"
	ProfilePostgres   = "postgres"
)

// ConfluenceProfile covers nodes written by the wiki full refresh.
func ConfluenceProfile() IndexProfile {
	return IndexProfile{
		Name:              ProfileConfluence,
		Label:             "Confluence",
		IndexName:         "confluence_embedding",
		KeywordIndexName:  "confluence_keyword",
		EmbeddingProperty: PropEmbedding,
		TextProperties:    []string{PropID, PropText, PropTitle, PropSpaceName, PropSpaceKey},
	}
}

// PostgresProfile covers nodes written by relational ingestion.
func PostgresProfile() IndexProfile {
	return IndexProfile{
		Name:              ProfilePostgres,
		Label:             "Postgres",
		IndexName:         "postgres_embedding",
		KeywordIndexName:  "postgres_keyword",
		EmbeddingProperty: PropEmbedding,
		TextProperties:    PostgresTextColumns(),
	}
}

// postgresColumnGroups lists the embeddable columns per source table family.
var postgresColumnGroups = [][]string{
	{"alt_code", "alt_name", "description", "disease_code", "disease_name"},
	{"id", "name", "type", "sponsor", "goal", "term", "eligibility_criteria"},
	{"name", "description", "code", "activation_date", "deactivation_date",
		"funding_statement", "grant_number", "contact_registry_label", "display_acronym"},
	{"name"},
	{"title", "first_author", "authors", "citation", "pub_date_year", "pub_date_month",
		"pub_date_day", "journal_book", "pmid", "pmcid", "doi", "nihmsid", "website_url", "summary"},
	{"id", "name", "protocol"},
	{"id", "code", "name"},
	{"id", "name", "code", "description", "alt_name", "website_url", "logo_url", "status_id"},
	{"id", "gard_id", "name"},
	{"id", "first_name", "last_name", "post_nominals", "title", "phone", "email",
		"address", "city", "state", "country", "zipcode", "status_id"},
}

// PostgresTextColumns returns the deduplicated union of embeddable columns,
// in first-seen order.
func PostgresTextColumns() []string {
	seen := make(map[string]bool)
	var out []string
	for _, group := range postgresColumnGroups {
		for _, col := range group {
			if seen[col] {
				continue
			}
			seen[col] = true
			out = append(out, col)
		}
	}
	return out
}

// DefaultIngestTables are the relational tables read by ingest when none are given.
func DefaultIngestTables() []string {
	return []string{
		"api_consortium",
		"api_consortiumsite",
		"api_contact",
		"api_disease",
		"api_diseasecategory",
		"api_enrollmentstatus",
		"api_fundingopportunity",
		"api_gard",
		"api_irbapprovalstatus",
		"api_pag",
		"api_publication",
		"api_researchtype",
		"api_site",
		"api_status",
		"api_study",
		"api_studycontact",
		"api_studytype",
	}
}

var builtinProfiles = map[string]func() IndexProfile{
	ProfileConfluence: ConfluenceProfile,
	ProfilePostgres:   PostgresProfile,
}

// ProfileByName returns a built-in profile.
func ProfileByName(name string) (IndexProfile, error) {
	build, ok := builtinProfiles[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return IndexProfile{}, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
	}
	return build(), nil
}

// ProfileNames returns the built-in profile names, sorted.
func ProfileNames() []string {
	names := make([]string, 0, len(builtinProfiles))
	for name := range builtinProfiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
