package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"greenspace-agent/internal/domain"
)

const resultLimit = 10

// Executor resolves model-issued tool invocations. Every non-local tool
// performs exactly one outbound HTTP call to a collaborator API; a single
// attempt with the client timeout, no retry. Failures of any kind are
// converted to structured outcomes so the model can narrate them — Run
// never returns a Go error.
type Executor struct {
	baseURL       string
	defaultRegion string
	httpClient    *http.Client
	log           logrus.FieldLogger
}

type Option func(*Executor)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(e *Executor) {
		e.httpClient = httpClient
	}
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(e *Executor) {
		e.log = log
	}
}

// NewExecutor creates an Executor against the collaborator API origin.
// defaultRegion fills the seasonal tool's location when the model omits it.
func NewExecutor(baseURL, defaultRegion string, opts ...Option) (*Executor, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("tools: base URL must not be empty")
	}
	if strings.TrimSpace(defaultRegion) == "" {
		return nil, errors.New("tools: default region must not be empty")
	}
	e := &Executor{
		baseURL:       baseURL,
		defaultRegion: defaultRegion,
		httpClient:    &http.Client{Timeout: 10 * time.Second},
		log:           logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Specs returns the model-facing specs of every registered tool.
func (e *Executor) Specs() []domain.ToolSpec {
	return Specs()
}

// Run executes one invocation and returns its outcome.
func (e *Executor) Run(ctx context.Context, inv domain.ToolInvocation, caller domain.CallerContext) domain.ToolOutcome {
	start := time.Now()
	out := e.dispatch(ctx, inv, caller)
	e.log.WithFields(logrus.Fields{
		"tool":        inv.Name,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("tool executed")
	return out
}

func (e *Executor) dispatch(ctx context.Context, inv domain.ToolInvocation, caller domain.CallerContext) domain.ToolOutcome {
	switch Name(inv.Name) {
	case NameSearchProducts:
		return e.searchProducts(ctx, inv.Args)
	case NameFindSellers:
		return e.findSellers(ctx, inv.Args, caller)
	case NameSeasonal:
		return e.seasonal(ctx, inv.Args)
	case NameWishlist:
		return e.wishlist(ctx, inv.Args, caller)
	case NameTrackOrder:
		return e.trackOrder(ctx, inv.Args, caller)
	case NameInstantOrder:
		return e.instantOrder(ctx, inv.Args, caller)
	case NamePaymentHelp:
		return e.paymentHelp(inv.Args)
	default:
		return failureOutcome(inv.Name, fmt.Sprintf("unknown tool %q", inv.Name), nil)
	}
}

func (e *Executor) searchProducts(ctx context.Context, raw json.RawMessage) domain.ToolOutcome {
	extras := listExtras("products")
	var args SearchProductsArgs
	if err := parseArgs(raw, &args); err != nil {
		return argumentOutcome(NameSearchProducts, err, extras)
	}

	q := url.Values{}
	q.Set("q", args.Query)
	if args.Category != "" {
		q.Set("category", args.Category)
	}
	if args.Location != "" {
		q.Set("location", args.Location)
	}
	if args.MaxPrice > 0 {
		q.Set("maxPrice", formatAmount(args.MaxPrice))
	}
	q.Set("limit", strconv.Itoa(resultLimit))

	payload, err := e.getJSON(ctx, "/api/ai/products", q)
	if err != nil {
		return e.callFailure(NameSearchProducts, "Product search is unavailable right now. Please try again.", err, extras)
	}
	return domain.ToolOutcome{Name: string(NameSearchProducts), Payload: payload}
}

func (e *Executor) findSellers(ctx context.Context, raw json.RawMessage, caller domain.CallerContext) domain.ToolOutcome {
	extras := listExtras("sellers")
	var args FindSellersArgs
	if err := parseArgs(raw, &args); err != nil {
		return argumentOutcome(NameFindSellers, err, extras)
	}
	args.applyDefaults()
	location := args.Location
	if location == "" {
		location = caller.Location
	}

	q := url.Values{}
	if location != "" {
		q.Set("location", location)
	}
	q.Set("radius", formatAmount(args.Radius))
	if args.FarmingMethod != "" {
		q.Set("farmingMethod", args.FarmingMethod)
	}
	q.Set("limit", strconv.Itoa(resultLimit))

	payload, err := e.getJSON(ctx, "/api/ai/sellers", q)
	if err != nil {
		return e.callFailure(NameFindSellers, "Seller lookup is unavailable right now. Please try again.", err, extras)
	}
	return domain.ToolOutcome{Name: string(NameFindSellers), Payload: payload}
}

func (e *Executor) seasonal(ctx context.Context, raw json.RawMessage) domain.ToolOutcome {
	var args SeasonalArgs
	if err := parseArgs(raw, &args); err != nil {
		return argumentOutcome(NameSeasonal, err, nil)
	}
	args.applyDefaults(e.defaultRegion)

	q := url.Values{}
	if args.Month != "" {
		q.Set("month", args.Month)
	}
	q.Set("location", args.Location)
	q.Set("type", args.Type)

	payload, err := e.getJSON(ctx, "/api/ai/seasonal", q)
	if err != nil {
		return e.callFailure(NameSeasonal, "Seasonal recommendations are unavailable right now. Please try again.", err, nil)
	}
	return domain.ToolOutcome{Name: string(NameSeasonal), Payload: payload}
}

type wishlistRequest struct {
	UserID            string  `json:"userId"`
	Action            string  `json:"action"`
	ItemName          string  `json:"itemName,omitempty"`
	MaxPrice          float64 `json:"maxPrice,omitempty"`
	PreferredLocation string  `json:"preferredLocation,omitempty"`
}

func (e *Executor) wishlist(ctx context.Context, raw json.RawMessage, caller domain.CallerContext) domain.ToolOutcome {
	var args WishlistArgs
	if err := parseArgs(raw, &args); err != nil {
		return argumentOutcome(NameWishlist, err, nil)
	}
	if !caller.Authenticated() {
		return failureOutcome(string(NameWishlist),
			"Please sign in to manage your wishlist.",
			map[string]any{"requiresAuth": true})
	}

	var payload json.RawMessage
	var err error
	if args.Action == WishlistActionView {
		q := url.Values{}
		q.Set("userId", caller.ID)
		payload, err = e.getJSON(ctx, "/api/ai/wishlist", q)
	} else {
		payload, err = e.postJSON(ctx, "/api/ai/wishlist", wishlistRequest{
			UserID:            caller.ID,
			Action:            args.Action,
			ItemName:          args.ItemName,
			MaxPrice:          args.MaxPrice,
			PreferredLocation: args.PreferredLocation,
		})
	}
	if err != nil {
		return e.callFailure(NameWishlist, "Wishlist is unavailable right now. Please try again.", err, nil)
	}
	return domain.ToolOutcome{Name: string(NameWishlist), Payload: payload}
}

func (e *Executor) trackOrder(ctx context.Context, raw json.RawMessage, caller domain.CallerContext) domain.ToolOutcome {
	var args TrackOrderArgs
	if err := parseArgs(raw, &args); err != nil {
		return argumentOutcome(NameTrackOrder, err, nil)
	}

	term := strings.TrimSpace(args.SearchTerm)
	q := url.Values{}
	if isPhoneNumber(term) {
		q.Set("phone", term)
	} else {
		q.Set("orderId", term)
	}
	if caller.Authenticated() {
		q.Set("userId", caller.ID)
	}

	payload, err := e.getJSON(ctx, "/api/ai/orders", q)
	if err != nil {
		return e.callFailure(NameTrackOrder, "Order lookup is unavailable right now. Please try again.", err, nil)
	}
	return domain.ToolOutcome{Name: string(NameTrackOrder), Payload: payload}
}

type instantOrderRequest struct {
	UserID       string  `json:"userId"`
	ItemName     string  `json:"itemName"`
	Quantity     float64 `json:"quantity"`
	MaxPrice     float64 `json:"maxPrice,omitempty"`
	UserPhone    string  `json:"userPhone"`
	UserLocation string  `json:"userLocation"`
}

func (e *Executor) instantOrder(ctx context.Context, raw json.RawMessage, caller domain.CallerContext) domain.ToolOutcome {
	var args InstantOrderArgs
	if err := parseArgs(raw, &args); err != nil {
		return argumentOutcome(NameInstantOrder, err, nil)
	}
	args.applyDefaults()

	payload, err := e.postJSON(ctx, "/api/ai/instant-order", instantOrderRequest{
		UserID:       caller.ID,
		ItemName:     args.ItemName,
		Quantity:     args.Quantity,
		MaxPrice:     args.MaxPrice,
		UserPhone:    caller.Phone,
		UserLocation: caller.Location,
	})
	if err != nil {
		return e.callFailure(NameInstantOrder, "Order placement is unavailable right now. Please try again.", err, nil)
	}
	return domain.ToolOutcome{Name: string(NameInstantOrder), Payload: payload}
}

// paymentHelp is local and pure: no outbound call, and the payload ignores
// the question entirely.
func (e *Executor) paymentHelp(raw json.RawMessage) domain.ToolOutcome {
	var args PaymentHelpArgs
	if err := parseArgs(raw, &args); err != nil {
		return argumentOutcome(NamePaymentHelp, err, nil)
	}
	return domain.ToolOutcome{Name: string(NamePaymentHelp), Payload: paymentGuidancePayload}
}

type validator interface {
	Validate() error
}

// parseArgs is the tagged decode-and-validate step: raw model JSON in,
// either a populated record or the reason it is unusable.
func parseArgs(raw json.RawMessage, into validator) error {
	if err := decodeArgs(raw, into); err != nil {
		return err
	}
	return into.Validate()
}

func (e *Executor) getJSON(ctx context.Context, path string, q url.Values) (json.RawMessage, error) {
	u := e.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	return e.doJSON(req)
}

func (e *Executor) postJSON(ctx context.Context, path string, body any) (json.RawMessage, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return e.doJSON(req)
}

func (e *Executor) doJSON(req *http.Request) (json.RawMessage, error) {
	res, err := e.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, fmt.Errorf("unexpected status %d from %s: %s", res.StatusCode, req.URL.Path, string(buf))
	}
	buf, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if !json.Valid(buf) {
		return nil, errors.New("collaborator returned non-JSON body")
	}
	return buf, nil
}

func (e *Executor) callFailure(name Name, msg string, err error, extras map[string]any) domain.ToolOutcome {
	e.log.WithFields(logrus.Fields{"tool": name}).WithError(err).Warn("tool call failed")
	return failureOutcome(string(name), msg, extras)
}

func argumentOutcome(name Name, err error, extras map[string]any) domain.ToolOutcome {
	return failureOutcome(string(name), fmt.Sprintf("invalid arguments for %s: %v", name, err), extras)
}

// failureOutcome encodes a failure as data so the orchestration loop never
// sees a tool error as a Go error.
func failureOutcome(name, msg string, extras map[string]any) domain.ToolOutcome {
	m := map[string]any{
		"success": false,
		"error":   msg,
	}
	for k, v := range extras {
		m[k] = v
	}
	data, err := json.Marshal(m)
	if err != nil {
		data = []byte(`{"success":false,"error":"tool failed"}`)
	}
	return domain.ToolOutcome{Name: name, Payload: data}
}

func listExtras(key string) map[string]any {
	return map[string]any{key: []any{}, "count": 0}
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
