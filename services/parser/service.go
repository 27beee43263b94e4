package parser

import (
	"context"
	"regexp"
	"strings"

	"github.com/opentracing/opentracing-go"

	"github.com/sendblast/sendblast/interfaces"
	"github.com/sendblast/sendblast/internal/logger"
	"github.com/sendblast/sendblast/internal/models"
	"github.com/sendblast/sendblast/internal/tracing"
)

const (
	maxLocalPartLength = 64
	maxDomainLength    = 255
	maxAddressLength   = 254
)

// addressPattern matches address-shaped tokens in free text. Extraction is
// deliberately loose so near-misses (missing TLD, malformed domain) surface
// as invalid instead of vanishing; Validate applies the strict grammar.
var addressPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\b`)

var domainLabelPattern = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9-]*[A-Za-z0-9])?$`)

var tldPattern = regexp.MustCompile(`^[A-Za-z]{2,}$`)

type parserService struct {
	log logger.Logger
}

func NewParserService(log logger.Logger) interfaces.ParserService {
	return &parserService{
		log: log,
	}
}

func (s *parserService) Extract(text string) []string {
	if text == "" {
		return []string{}
	}
	matches := addressPattern.FindAllString(text, -1)
	if matches == nil {
		return []string{}
	}
	return matches
}

func (s *parserService) Validate(address string) bool {
	if address == "" || len(address) > maxAddressLength {
		return false
	}

	parts := strings.Split(address, "@")
	if len(parts) != 2 {
		return false
	}
	local, domain := parts[0], parts[1]

	if !validLocalPart(local) {
		return false
	}
	return validDomain(domain)
}

func validLocalPart(local string) bool {
	if local == "" || len(local) > maxLocalPartLength {
		return false
	}
	if strings.HasPrefix(local, ".") || strings.HasSuffix(local, ".") {
		return false
	}
	if strings.Contains(local, "..") {
		return false
	}
	for _, r := range local {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case strings.ContainsRune("._%+-", r):
		default:
			return false
		}
	}
	return true
}

func validDomain(domain string) bool {
	if domain == "" || len(domain) > maxDomainLength {
		return false
	}

	labels := strings.Split(domain, ".")
	// A bare hostname with no TLD is not routable mail.
	if len(labels) < 2 {
		return false
	}

	for _, label := range labels {
		if len(label) == 0 || len(label) > 63 {
			return false
		}
		if !domainLabelPattern.MatchString(label) {
			return false
		}
	}

	return tldPattern.MatchString(labels[len(labels)-1])
}

func (s *parserService) Deduplicate(addresses []string) ([]string, int) {
	seen := make(map[string]struct{}, len(addresses))
	unique := make([]string, 0, len(addresses))

	for _, address := range addresses {
		key := strings.ToLower(address)
		if _, exists := seen[key]; !exists {
			seen[key] = struct{}{}
			unique = append(unique, address)
		}
	}

	return unique, len(addresses) - len(unique)
}

// Parse runs extraction, then dedup, then validation. Dedup happens before
// validation so repeats of an invalid address still count as duplicates.
func (s *parserService) Parse(ctx context.Context, text string) *models.ParseOutcome {
	span, _ := opentracing.StartSpanFromContext(ctx, "ParserService.Parse")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	extracted := s.Extract(text)
	unique, removed := s.Deduplicate(extracted)

	outcome := &models.ParseOutcome{
		Valid:             []string{},
		Invalid:           []string{},
		DuplicatesRemoved: removed,
	}

	for _, address := range unique {
		if s.Validate(address) {
			outcome.Valid = append(outcome.Valid, address)
		} else {
			outcome.Invalid = append(outcome.Invalid, address)
		}
	}

	span.LogKV("extracted", len(extracted), "valid", len(outcome.Valid), "invalid", len(outcome.Invalid), "duplicates", removed)
	s.log.Debugf("parsed %d addresses: %d valid, %d invalid, %d duplicates removed",
		len(extracted), len(outcome.Valid), len(outcome.Invalid), removed)

	return outcome
}
