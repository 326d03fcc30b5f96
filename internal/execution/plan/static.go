package plan

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/animus-labs/tablefuel/internal/domain"
)

var groupNamespace = uuid.MustParse("6f1c2a8e-3b7d-4c4e-9a21-8d0f4b6e2c17")

// BuildStaticPlan splits fragments into contiguous chunks of at most
// groupSize, each with one fallback command per fragment. The result is
// deterministic: group ids derive from the template and chunk index.
func BuildStaticPlan(template string, fragments []string, groupSize int) (domain.StaticPlan, error) {
	if strings.TrimSpace(template) == "" {
		return domain.StaticPlan{}, errors.New("template is required")
	}
	if groupSize < 1 {
		return domain.StaticPlan{}, fmt.Errorf("group size must be >= 1, got %d", groupSize)
	}
	for i, fragment := range fragments {
		if strings.TrimSpace(fragment) == "" {
			return domain.StaticPlan{}, fmt.Errorf("fragment %d is blank", i)
		}
	}

	groups := make([]domain.CommandGroup, 0, (len(fragments)+groupSize-1)/groupSize)
	for start := 0; start < len(fragments); start += groupSize {
		end := min(start+groupSize, len(fragments))
		chunk := append([]string(nil), fragments[start:end]...)

		fallbacks := make([]string, 0, len(chunk))
		for _, fragment := range chunk {
			fallbacks = append(fallbacks, Filtered(template, fragment))
		}
		groups = append(groups, domain.CommandGroup{
			ID:        groupID(template, len(groups)),
			Command:   Filtered(template, Disjunction(chunk)),
			Fragments: chunk,
			Fallbacks: fallbacks,
		})
	}
	return domain.StaticPlan{Groups: groups}, nil
}

// Filtered renders template restricted by predicate.
func Filtered(template, predicate string) string {
	return template + " WHERE " + predicate
}

// Disjunction joins fragments into one OR expression.
func Disjunction(fragments []string) string {
	return strings.Join(fragments, " OR ")
}

func groupID(template string, index int) string {
	name := fmt.Sprintf("%d\x00%s", index, template)
	return uuid.NewSHA1(groupNamespace, []byte(name)).String()
}
