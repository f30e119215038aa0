package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/bdsalocin/comhodl-api/internal/comhodl"
	"github.com/bdsalocin/comhodl-api/internal/leaderboard"
	"github.com/bdsalocin/comhodl-api/internal/proximity"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse maps each checked dependency to its status.
type HealthResponse map[string]struct {
	Status    string `json:"status"`
	LatencyMS int64  `json:"latency_ms"`
}

type idPath struct {
	ID int64 `path:"id"`
}

type coordinateQuery struct {
	Lat *float64 `query:"lat"`
	Lng *float64 `query:"lng"`
}

type placesQuery struct {
	coordinateQuery
	Type string `query:"type"`
}

type placeQuery struct {
	idPath
	coordinateQuery
}

type visitInput struct {
	idPath
	VisitRequest
}

type nearbyQuery struct {
	Lat    float64  `query:"lat" required:"true"`
	Lng    float64  `query:"lng" required:"true"`
	Radius *float64 `query:"radius"`
}

type searchQuery struct {
	Q string `query:"q" required:"true"`
}

type activityPath struct {
	Activity comhodl.Activity `path:"activity"`
}

type leaderboardQuery struct {
	Limit *int `query:"limit"`
}

type eventsQuery struct {
	Token string `query:"token" required:"true"`
}

// apiOp describes one documented operation.
type apiOp struct {
	method, path string
	summary      string
	description  string
	req          any
	resp         any
	status       int
	errors       []int
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "comHodl API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend API for the comHodl points-of-interest and rewards app.")

	const bearer = " Requires Bearer token."
	ops := []apiOp{
		{method: http.MethodGet, path: "/", summary: "Service status", resp: RootResponse{}},
		{method: http.MethodGet, path: "/healthz", summary: "Health check",
			description: "Returns the health status of backend dependencies.",
			resp:        HealthResponse{}, errors: []int{http.StatusServiceUnavailable}},

		// Auth
		{method: http.MethodPost, path: "/api/auth/login", summary: "Log in",
			description: "Checks email and password and returns a session token.",
			req:         LoginRequest{}, resp: AuthResponse{},
			errors: []int{http.StatusBadRequest, http.StatusUnauthorized}},
		{method: http.MethodPost, path: "/api/auth/register", summary: "Register",
			description: "Creates an account and returns a session token.",
			req:         RegisterRequest{}, resp: AuthResponse{}, status: http.StatusCreated,
			errors: []int{http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity}},
		{method: http.MethodPost, path: "/api/auth/logout", summary: "Log out",
			description: "Revokes the presented token, if any.", resp: LogoutResponse{}},

		// Users
		{method: http.MethodGet, path: "/api/users/me", summary: "Current user",
			description: "Profile plus level derived from points." + bearer,
			resp:        MeResponse{}, errors: []int{http.StatusUnauthorized, http.StatusNotFound}},
		{method: http.MethodPost, path: "/api/users/profile", summary: "Update profile",
			description: "Partial update; absent fields are left untouched." + bearer,
			req:         comhodl.ProfileUpdate{}, resp: MeResponse{},
			errors: []int{http.StatusBadRequest, http.StatusUnauthorized}},
		{method: http.MethodPost, path: "/api/users/preferences", summary: "Set activity preferences",
			description: bearer[1:], req: PreferencesRequest{}, resp: MeResponse{},
			errors: []int{http.StatusBadRequest, http.StatusUnauthorized}},
		{method: http.MethodPost, path: "/api/users/questionnaire", summary: "Complete questionnaire",
			description: "Stores the onboarding answers and marks the questionnaire complete." + bearer,
			req:         QuestionnaireRequest{}, resp: MeResponse{},
			errors: []int{http.StatusBadRequest, http.StatusUnauthorized}},
		{method: http.MethodGet, path: "/api/users/defis", summary: "Completed défis",
			description: bearer[1:], resp: []comhodl.CompletedDefi{}, errors: []int{http.StatusUnauthorized}},
		{method: http.MethodGet, path: "/api/users/qr-scans", summary: "QR scan history",
			description: bearer[1:], resp: []comhodl.QRScan{}, errors: []int{http.StatusUnauthorized}},
		{method: http.MethodGet, path: "/api/users/parcours", summary: "Parcours history",
			description: bearer[1:], resp: []comhodl.Parcours{}, errors: []int{http.StatusUnauthorized}},

		// Places
		{method: http.MethodGet, path: "/api/places", summary: "List places",
			description: "Catalog places in catalog order, with distance when lat/lng are given.",
			req:         placesQuery{}, resp: []proximity.Annotated{}, errors: []int{http.StatusBadRequest}},
		{method: http.MethodGet, path: "/api/places/{id}", summary: "Get place",
			req: placeQuery{}, resp: proximity.Annotated{},
			errors: []int{http.StatusBadRequest, http.StatusNotFound}},
		{method: http.MethodPost, path: "/api/places/{id}/visit", summary: "Visit place",
			description: "Awards the place points once per day. A position, when sent, must be close to the place." + bearer,
			req:         visitInput{}, resp: comhodl.Reward{},
			errors: []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusNotFound,
				http.StatusConflict, http.StatusUnprocessableEntity}},

		// Merchants
		{method: http.MethodGet, path: "/api/merchants", summary: "List merchants", resp: []comhodl.Merchant{}},
		{method: http.MethodGet, path: "/api/merchants/search", summary: "Search merchants",
			req: searchQuery{}, resp: []comhodl.Merchant{}, errors: []int{http.StatusBadRequest}},
		{method: http.MethodGet, path: "/api/merchants/nearby", summary: "Nearby merchants",
			description: "Merchants within radius km (default 5, max 50), nearest first.",
			req:         nearbyQuery{}, resp: []comhodl.NearbyMerchant{}, errors: []int{http.StatusBadRequest}},
		{method: http.MethodGet, path: "/api/merchants/activity/{activity}", summary: "Merchants by activity",
			req: activityPath{}, resp: []comhodl.Merchant{}},
		{method: http.MethodGet, path: "/api/merchants/{id}", summary: "Get merchant",
			req: idPath{}, resp: comhodl.Merchant{}, errors: []int{http.StatusNotFound}},
		{method: http.MethodGet, path: "/api/merchants/{id}/qr-codes", summary: "Merchant QR codes",
			req: idPath{}, resp: []comhodl.QRCode{}, errors: []int{http.StatusNotFound}},
		{method: http.MethodGet, path: "/api/merchants/{id}/defis", summary: "Merchant défis",
			req: idPath{}, resp: []comhodl.Defi{}, errors: []int{http.StatusNotFound}},
		{method: http.MethodGet, path: "/api/merchants/{id}/lots", summary: "Merchant lots",
			req: idPath{}, resp: []comhodl.Lot{}, errors: []int{http.StatusNotFound}},

		// Challenges
		{method: http.MethodPost, path: "/api/challenges/scan", summary: "Scan QR code",
			description: "Each code rewards a user once." + bearer,
			req:         ScanRequest{}, resp: comhodl.Reward{},
			errors: []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusNotFound,
				http.StatusConflict, http.StatusGone}},
		{method: http.MethodGet, path: "/api/challenges/defis/active", summary: "Open défis",
			description: bearer[1:], resp: []comhodl.Defi{}, errors: []int{http.StatusUnauthorized}},
		{method: http.MethodGet, path: "/api/challenges/defis/{id}", summary: "Get défi",
			description: bearer[1:], req: idPath{}, resp: comhodl.Defi{},
			errors: []int{http.StatusUnauthorized, http.StatusNotFound}},
		{method: http.MethodPost, path: "/api/challenges/defis/{id}/complete", summary: "Complete défi",
			description: bearer[1:], req: idPath{}, resp: comhodl.Reward{},
			errors: []int{http.StatusUnauthorized, http.StatusNotFound, http.StatusConflict,
				http.StatusUnprocessableEntity}},
		{method: http.MethodPost, path: "/api/challenges/parcours/start", summary: "Start parcours",
			description: bearer[1:], req: StartParcoursRequest{}, resp: comhodl.Parcours{},
			status: http.StatusCreated, errors: []int{http.StatusBadRequest, http.StatusUnauthorized}},
		{method: http.MethodPost, path: "/api/challenges/parcours/{id}/complete", summary: "Complete parcours",
			description: "Awards 50 points per merchant." + bearer, req: idPath{}, resp: comhodl.Reward{},
			errors: []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound, http.StatusConflict}},
		{method: http.MethodGet, path: "/api/challenges/parcours/active", summary: "Parcours in progress",
			description: bearer[1:], resp: []comhodl.Parcours{}, errors: []int{http.StatusUnauthorized}},

		// Progress
		{method: http.MethodGet, path: "/api/achievements", summary: "Achievements",
			description: "Per-user achievement progress and summary." + bearer,
			resp:        AchievementsResponse{}, errors: []int{http.StatusUnauthorized}},
		{method: http.MethodGet, path: "/api/leaderboard", summary: "Leaderboard",
			req: leaderboardQuery{}, resp: []leaderboard.Entry{}, errors: []int{http.StatusBadRequest}},
	}

	for _, op := range ops {
		oc, _ := r.NewOperationContext(op.method, op.path)
		oc.SetSummary(op.summary)
		if op.description != "" {
			oc.SetDescription(op.description)
		}
		if op.req != nil {
			oc.AddReqStructure(op.req)
		}
		status := op.status
		if status == 0 {
			status = http.StatusOK
		}
		oc.AddRespStructure(op.resp, openapi.WithHTTPStatus(status))
		for _, code := range op.errors {
			oc.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(code))
		}
		_ = r.AddOperation(oc)
	}

	// GET /api/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/events")
	getEvents.SetSummary("SSE event stream")
	getEvents.SetDescription("Server-Sent Events stream. Opens with a `state` snapshot, then sends `points`, " +
		"`level` and `achievement` events whose data is an Event object. Pass token as query parameter.")
	getEvents.AddReqStructure(eventsQuery{})
	getEvents.AddRespStructure(Event{}, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	getEvents.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getEvents)

	// GET /ws/nearby
	getNearby, _ := r.NewOperationContext(http.MethodGet, "/ws/nearby")
	getNearby.SetSummary("Nearby places stream")
	getNearby.SetDescription("Upgrades to a WebSocket. Send {latitude, longitude} frames and receive the annotated catalog.")
	getNearby.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("application/json"))
	_ = r.AddOperation(getNearby)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
