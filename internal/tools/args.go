package tools

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Wishlist actions and seasonal types form closed sets; membership is
// checked during validation and advertised to the model through schema
// enums.
const (
	WishlistActionAdd    = "add"
	WishlistActionRemove = "remove"
	WishlistActionView   = "view"

	SeasonalTypeProducts = "products"
	SeasonalTypeSeeds    = "seeds"
	SeasonalTypeBoth     = "both"
)

const defaultSellerRadiusKm = 10

// SearchProductsArgs are the arguments of the product search tool.
type SearchProductsArgs struct {
	Query    string  `json:"query" jsonschema:"description=Free-text product query such as 'organic tomatoes'"`
	Category string  `json:"category,omitempty" jsonschema:"description=Optional product category filter"`
	Location string  `json:"location,omitempty" jsonschema:"description=Optional location filter"`
	MaxPrice float64 `json:"maxPrice,omitempty" jsonschema:"description=Optional price ceiling in rupees"`
}

func (a *SearchProductsArgs) Validate() error {
	if strings.TrimSpace(a.Query) == "" {
		return errors.New("query is required")
	}
	if a.MaxPrice < 0 {
		return errors.New("maxPrice must not be negative")
	}
	return nil
}

// FindSellersArgs are the arguments of the nearby-seller discovery tool.
type FindSellersArgs struct {
	Location      string  `json:"location,omitempty" jsonschema:"description=Location to search around; defaults to the caller's location"`
	Radius        float64 `json:"radius,omitempty" jsonschema:"description=Search radius in kilometres,default=10"`
	FarmingMethod string  `json:"farmingMethod,omitempty" jsonschema:"description=Optional farming method filter such as 'natural' or 'organic'"`
}

func (a *FindSellersArgs) Validate() error {
	if a.Radius < 0 {
		return errors.New("radius must not be negative")
	}
	return nil
}

func (a *FindSellersArgs) applyDefaults() {
	if a.Radius == 0 {
		a.Radius = defaultSellerRadiusKm
	}
}

// SeasonalArgs are the arguments of the seasonal recommendation tool.
type SeasonalArgs struct {
	Month    string `json:"month,omitempty" jsonschema:"description=Month name; defaults to the current month server-side"`
	Location string `json:"location,omitempty" jsonschema:"description=Region; defaults to the marketplace's home region"`
	Type     string `json:"type,omitempty" jsonschema:"enum=products,enum=seeds,enum=both,description=What to recommend,default=both"`
}

func (a *SeasonalArgs) Validate() error {
	switch a.Type {
	case "", SeasonalTypeProducts, SeasonalTypeSeeds, SeasonalTypeBoth:
		return nil
	default:
		return fmt.Errorf("type must be one of %s, %s or %s", SeasonalTypeProducts, SeasonalTypeSeeds, SeasonalTypeBoth)
	}
}

func (a *SeasonalArgs) applyDefaults(defaultRegion string) {
	if strings.TrimSpace(a.Location) == "" {
		a.Location = defaultRegion
	}
	if a.Type == "" {
		a.Type = SeasonalTypeBoth
	}
}

// WishlistArgs are the arguments of the wishlist management tool.
type WishlistArgs struct {
	Action            string  `json:"action" jsonschema:"enum=add,enum=remove,enum=view,description=What to do with the wishlist"`
	ItemName          string  `json:"itemName,omitempty" jsonschema:"description=Item to add or remove"`
	MaxPrice          float64 `json:"maxPrice,omitempty" jsonschema:"description=Optional price ceiling to remember with the item"`
	PreferredLocation string  `json:"preferredLocation,omitempty" jsonschema:"description=Optional preferred source location"`
}

func (a *WishlistArgs) Validate() error {
	switch a.Action {
	case WishlistActionAdd, WishlistActionRemove:
		if strings.TrimSpace(a.ItemName) == "" {
			return fmt.Errorf("itemName is required for action %q", a.Action)
		}
		return nil
	case WishlistActionView:
		return nil
	default:
		return fmt.Errorf("action must be one of %s, %s or %s", WishlistActionAdd, WishlistActionRemove, WishlistActionView)
	}
}

// TrackOrderArgs are the arguments of the order tracking tool.
type TrackOrderArgs struct {
	SearchTerm string `json:"searchTerm" jsonschema:"description=Order id or the 10-digit phone number the order was placed with"`
}

func (a *TrackOrderArgs) Validate() error {
	if strings.TrimSpace(a.SearchTerm) == "" {
		return errors.New("searchTerm is required")
	}
	return nil
}

// InstantOrderArgs are the arguments of the instant order tool.
type InstantOrderArgs struct {
	ItemName string  `json:"itemName" jsonschema:"description=Item to order; may include a quantity token like '2kg tomatoes'"`
	Quantity float64 `json:"quantity,omitempty" jsonschema:"description=Quantity in kilograms,default=1"`
	MaxPrice float64 `json:"maxPrice,omitempty" jsonschema:"description=Optional price ceiling in rupees"`
}

func (a *InstantOrderArgs) Validate() error {
	if strings.TrimSpace(a.ItemName) == "" {
		return errors.New("itemName is required")
	}
	if a.Quantity < 0 {
		return errors.New("quantity must not be negative")
	}
	return nil
}

// applyDefaults resolves the effective quantity and item name: an explicit
// quantity wins, otherwise a quantity token embedded in the item text is
// extracted and stripped, otherwise the quantity is 1.
func (a *InstantOrderArgs) applyDefaults() {
	if a.Quantity > 0 {
		return
	}
	if qty, cleaned, ok := extractQuantity(a.ItemName); ok {
		a.Quantity = qty
		a.ItemName = cleaned
		return
	}
	a.Quantity = 1
}

// PaymentHelpArgs are the arguments of the payment guidance tool. The
// payload is input-independent; the question only informs the model's
// narration.
type PaymentHelpArgs struct {
	Question string `json:"question" jsonschema:"description=The caller's payment question"`
}

func (a *PaymentHelpArgs) Validate() error { return nil }

// decodeArgs parses model-issued raw JSON arguments into the typed record.
// A nil raw value decodes to the zero record so tools with no required
// fields accept an omitted argument object.
func decodeArgs(raw json.RawMessage, into any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, into); err != nil {
		return fmt.Errorf("malformed arguments: %w", err)
	}
	return nil
}
