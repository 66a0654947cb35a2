package usecase

import (
	"fmt"
	"strings"

	"greenspace-agent/internal/domain"
)

const (
	guestEmail = "Guest"
	guestRole  = "guest"
)

// exampleInvocations maps tool names to the free-text phrasing documented in
// the capability menu, so the model can self-select a tool from natural
// language.
var exampleInvocations = map[string]string{
	"search_products":              "Do you have organic tomatoes under 50 rupees?",
	"find_nearby_sellers":          "Who sells naturally grown vegetables near me?",
	"get_seasonal_recommendations": "What should I grow in July?",
	"manage_wishlist":              "Add alphonso mangoes to my wishlist",
	"track_order":                  "Where is my order? My number is 9876543210",
	"create_instant_order":         "Buy 2kg tomatoes",
	"get_payment_help":             "How do I pay with UPI?",
}

// buildSystemPrompt produces the system instruction for one turn. Pure and
// deterministic: the same caller, tool specs and default region always
// yield the same string.
func buildSystemPrompt(caller domain.CallerContext, specs []domain.ToolSpec, defaultRegion string) string {
	return strings.Join([]string{
		"Role:",
		"You are the Greenspace assistant, helping people buy fresh naturally grown produce,",
		"find local sellers and get farming advice on the Greenspace marketplace.",
		"",
		"Caller:",
		buildCallerBlock(caller, defaultRegion),
		"",
		"Capabilities:",
		buildCapabilityMenu(specs),
		"",
		"Behavior Rules:",
		behaviorRules(),
	}, "\n")
}

func buildCallerBlock(caller domain.CallerContext, defaultRegion string) string {
	email := strings.TrimSpace(caller.Email)
	if email == "" {
		email = guestEmail
	}
	role := strings.TrimSpace(caller.Role)
	if role == "" {
		role = guestRole
	}
	location := strings.TrimSpace(caller.Location)
	if location == "" {
		location = defaultRegion
	}
	lines := []string{
		"- Email: " + email,
		"- Role: " + role,
		"- Location: " + location,
	}
	if !caller.Authenticated() {
		lines = append(lines, "- The caller is not signed in; account actions like the wishlist will ask them to sign in.")
	}
	return strings.Join(lines, "\n")
}

func buildCapabilityMenu(specs []domain.ToolSpec) string {
	lines := make([]string, 0, len(specs))
	for _, s := range specs {
		line := fmt.Sprintf("- %s: %s", s.Name, s.Description)
		if example, ok := exampleInvocations[s.Name]; ok {
			line += fmt.Sprintf(" Example: %q", example)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func behaviorRules() string {
	return strings.Join([]string{
		"1) Use the tools above for anything involving live marketplace data; never invent listings, sellers or prices.",
		"2) When a tool reports a failure, explain it plainly and suggest what to try next.",
		"3) Keep answers short, friendly and practical.",
		"4) Prices are in rupees and quantities in kilograms unless the caller says otherwise.",
		"5) Only discuss farming, produce and the marketplace.",
	}, "\n")
}
