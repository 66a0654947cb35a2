package tools

import (
	"encoding/json"

	"github.com/invopop/jsonschema"

	"greenspace-agent/internal/domain"
)

// Name identifies one tool in the closed registry. Adding a tool means
// adding a constant here, a definition in buildDefinitions and a case in
// Executor.Run; the switch there is exhaustive over these values.
type Name string

const (
	NameSearchProducts Name = "search_products"
	NameFindSellers    Name = "find_nearby_sellers"
	NameSeasonal       Name = "get_seasonal_recommendations"
	NameWishlist       Name = "manage_wishlist"
	NameTrackOrder     Name = "track_order"
	NameInstantOrder   Name = "create_instant_order"
	NamePaymentHelp    Name = "get_payment_help"
)

// Definition binds a tool name to its human description and the parameter
// schema shipped to the model. Definitions are built once at package load
// and never mutated; concurrent reads are safe.
type Definition struct {
	Name        Name
	Description string
	Parameters  map[string]any
}

var definitions = buildDefinitions()

// Definitions returns the full registry in stable order.
func Definitions() []Definition {
	return definitions
}

// Specs returns the registry as model-facing tool specs.
func Specs() []domain.ToolSpec {
	out := make([]domain.ToolSpec, 0, len(definitions))
	for _, d := range definitions {
		out = append(out, domain.ToolSpec{
			Name:        string(d.Name),
			Description: d.Description,
			Parameters:  d.Parameters,
		})
	}
	return out
}

func buildDefinitions() []Definition {
	return []Definition{
		{
			Name:        NameSearchProducts,
			Description: "Search marketplace product listings by free-text query, with optional category, location and price cap filters.",
			Parameters:  parameterSchema(&SearchProductsArgs{}),
		},
		{
			Name:        NameFindSellers,
			Description: "Find natural-farming sellers near a location, within a radius in kilometres.",
			Parameters:  parameterSchema(&FindSellersArgs{}),
		},
		{
			Name:        NameSeasonal,
			Description: "Get seasonal growing and buying recommendations for a month and region, for products, seeds or both.",
			Parameters:  parameterSchema(&SeasonalArgs{}),
		},
		{
			Name:        NameWishlist,
			Description: "Add to, remove from or view the caller's wishlist. Requires a signed-in caller.",
			Parameters:  parameterSchema(&WishlistArgs{}),
		},
		{
			Name:        NameTrackOrder,
			Description: "Track an order by order id, or by the 10-digit phone number the order was placed with.",
			Parameters:  parameterSchema(&TrackOrderArgs{}),
		},
		{
			Name:        NameInstantOrder,
			Description: "Place an instant order for an item. Quantity tokens like '2kg' in the item text are understood.",
			Parameters:  parameterSchema(&InstantOrderArgs{}),
		},
		{
			Name:        NamePaymentHelp,
			Description: "Explain how payment works on the marketplace: supported methods, the payment-screenshot flow, tips and troubleshooting.",
			Parameters:  parameterSchema(&PaymentHelpArgs{}),
		},
	}
}

// parameterSchema reflects a typed argument record into a plain JSON-schema
// object suitable for a model function declaration: inlined, unreferenced,
// stripped of draft metadata.
func parameterSchema(v any) map[string]any {
	r := &jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	schema := r.Reflect(v)

	data, err := json.Marshal(schema)
	if err != nil {
		panic("tools: marshal parameter schema: " + err.Error())
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		panic("tools: unmarshal parameter schema: " + err.Error())
	}
	delete(out, "$schema")
	delete(out, "$id")
	delete(out, "additionalProperties")
	return out
}
