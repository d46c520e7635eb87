package producer

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"

	"lexshelf/internal/domain"
	"lexshelf/internal/ports"
)

// synthetic document kinds and the fields they carry
type template struct {
	kind         string
	jurisdiction string
	court        string
	documentType string
	source       string
	domains      []string
}

var templates = []template{
	{kind: "supreme_court", jurisdiction: "us_federal", court: "Supreme Court of the United States", documentType: "case",
		domains: []string{"constitutional_law", "administrative_law"}},
	{kind: "circuit_courts", jurisdiction: "us_federal", court: "U.S. Court of Appeals, Ninth Circuit", documentType: "case",
		domains: []string{"contract_law", "ip_law", "employment_law"}},
	{kind: "district_courts", jurisdiction: "us_federal", court: "U.S. District Court, Southern District of New York", documentType: "case",
		domains: []string{"contract_law", "intellectual_property"}},
	{kind: "statutes", jurisdiction: "us_federal", documentType: "statute", domains: []string{"administrative_law"}},
	{kind: "regulations", jurisdiction: "us_federal", documentType: "regulation", domains: []string{"administrative_law"}},
	{kind: "academic", jurisdiction: "us", documentType: "article", source: "Google Scholar", domains: []string{"constitutional_law", "tort_law"}},
	{kind: "state_ny", jurisdiction: "us_ny", court: "New York Court of Appeals", documentType: "case", domains: []string{"tort_law"}},
	{kind: "state_ca", jurisdiction: "us_ca", court: "Supreme Court of California", documentType: "case", domains: []string{"employment_law"}},
	{kind: "state_tx", jurisdiction: "us_tx", court: "Supreme Court of Texas", documentType: "case", domains: []string{"contract_law"}},
	{kind: "contracts", jurisdiction: "us_wa", documentType: "opinion", domains: []string{"contract_law"}},
}

var topics = map[string][]string{
	"constitutional_law":    {"Due Process Rights", "Equal Protection", "First Amendment Rights", "Commerce Clause"},
	"contract_law":          {"Breach of Contract", "Contract Formation", "Offer and Acceptance", "Specific Performance"},
	"tort_law":              {"Negligence", "Strict Liability", "Product Liability", "Defamation"},
	"ip_law":                {"Patent Infringement", "Trade Secrets", "Patent Validity"},
	"intellectual_property": {"Copyright Protection", "Trademark Disputes", "Fair Use"},
	"administrative_law":    {"Agency Authority", "Rulemaking Process", "Judicial Review", "Notice and Comment"},
	"employment_law":        {"Wrongful Termination", "Wage and Hour Claims", "Workplace Discrimination"},
}

var (
	plaintiffs = []string{"Johnson", "Smith", "Williams", "Brown", "Garcia", "Miller"}
	defendants = []string{"Anderson", "Taylor", "Moore", "Jackson", "Lee", "Thompson"}
	companies  = []string{"Tech Corp", "Global Industries", "Metro Systems", "United Holdings"}
)

// syntheticNamespace seeds the deterministic document ids
var syntheticNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("lexshelf/synthetic"))

// SyntheticProducer generates template legal documents for load testing.
// The same seed always yields the same documents.
type SyntheticProducer struct {
	Count     int
	Seed      uint64
	FromYear  int
	ToYear    int
	Undated   float64 // share of documents emitted without date_filed
	Generated time.Time
}

// Ensure SyntheticProducer implements DocumentProducer
var _ ports.DocumentProducer = (*SyntheticProducer)(nil)

// NewSyntheticProducer creates a generator of count documents filed between 2015 and 2025
func NewSyntheticProducer(count int, seed uint64) *SyntheticProducer {
	return &SyntheticProducer{
		Count:     count,
		Seed:      seed,
		FromYear:  2015,
		ToYear:    2025,
		Generated: time.Now().UTC(),
	}
}

// Name identifies the source in logs
func (p *SyntheticProducer) Name() string {
	return fmt.Sprintf("synthetic:%d@%d", p.Count, p.Seed)
}

// Produce emits Count documents
func (p *SyntheticProducer) Produce(ctx context.Context, emit func(domain.Incoming) error) error {
	if p.ToYear < p.FromYear {
		return fmt.Errorf("invalid year range %d-%d", p.FromYear, p.ToYear)
	}
	rng := rand.New(rand.NewPCG(p.Seed, p.Seed^0x9e3779b97f4a7c15))

	for i := 0; i < p.Count; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		doc := p.generate(rng, i)
		if err := emit(domain.Incoming{Document: doc, Origin: p.Name()}); err != nil {
			return err
		}
	}
	return nil
}

func (p *SyntheticProducer) generate(rng *rand.Rand, i int) *domain.Document {
	tpl := templates[rng.IntN(len(templates))]
	legalDomain := pick(rng, tpl.domains)
	topic := pick(rng, topics[legalDomain])
	year := p.FromYear + rng.IntN(p.ToYear-p.FromYear+1)
	filed := time.Date(year, time.Month(1+rng.IntN(12)), 1+rng.IntN(28), 0, 0, 0, 0, time.UTC)

	short := strings.ReplaceAll(uuid.NewSHA1(syntheticNamespace, fmt.Appendf(nil, "%d/%d", p.Seed, i)).String(), "-", "")[:8]
	id := fmt.Sprintf("%s_synthetic_%s_%s", tpl.kind, short, filed.Format("20060102"))

	caseName := fmt.Sprintf("%s v. %s", pick(rng, plaintiffs), pick(rng, defendants))
	if rng.IntN(4) == 0 {
		caseName = fmt.Sprintf("%s v. %s", pick(rng, companies), pick(rng, companies))
	}

	source := tpl.source
	if source == "" {
		source = "Synthetic Legal Document Generator"
	}

	doc := &domain.Document{
		ID:           id,
		Title:        topic + " - " + caseName,
		Content:      content(tpl, topic, caseName, year),
		Jurisdiction: tpl.jurisdiction,
		LegalDomain:  legalDomain,
		DocumentType: tpl.documentType,
		Court:        tpl.court,
		Source:       source,
		DateFiled:    filed.Format(time.DateOnly),
		Metadata: map[string]any{
			"synthetic":       true,
			"category":        tpl.kind,
			"topic":           topic,
			"target_year":     year,
			"generation_date": p.Generated.Format(time.RFC3339),
		},
	}
	if p.Undated > 0 && rng.Float64() < p.Undated {
		doc.DateFiled = ""
	}

	doc.Extra = map[string]json.RawMessage{}
	if name, err := json.Marshal(caseName); err == nil {
		doc.Extra["case_name"] = name
	}
	if ts, err := json.Marshal([]string{topic, strings.ReplaceAll(legalDomain, "_", " ")}); err == nil {
		doc.Extra["legal_topics"] = ts
	}
	return doc
}

func content(tpl template, topic, caseName string, year int) string {
	var b strings.Builder
	switch tpl.documentType {
	case "statute":
		fmt.Fprintf(&b, "SECTION 1. SHORT TITLE.\nThis Act may be cited as the %s Act of %d.\n\n", topic, year)
		fmt.Fprintf(&b, "SECTION 2. APPLICATION.\nThe provisions of this section apply to all matters involving %s under federal jurisdiction.\n",
			strings.ToLower(topic))
	case "regulation":
		fmt.Fprintf(&b, "PART %d - %s\n\n", 100+year%900, strings.ToUpper(topic))
		fmt.Fprintf(&b, "Each regulated entity shall maintain records demonstrating compliance with the %s requirements.\n",
			strings.ToLower(topic))
	case "article":
		fmt.Fprintf(&b, "%s: A Critical Analysis\n\nThis article examines the development of %s doctrine and its application since %d.\n",
			topic, strings.ToLower(topic), year)
	default:
		court := tpl.court
		if court == "" {
			court = "the court"
		}
		fmt.Fprintf(&b, "%s\n%s\n\n", caseName, court)
		fmt.Fprintf(&b, "This case presents the question of %s. ", strings.ToLower(topic))
		fmt.Fprintf(&b, "Based on the factual record, the court finds that the applicable standard was met in %d.\n", year)
	}
	return b.String()
}

func pick(rng *rand.Rand, options []string) string {
	return options[rng.IntN(len(options))]
}
