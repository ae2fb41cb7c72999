package tutorial

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/parcelkit/api"
	"github.com/parcelkit/api/internal/database"
)

const longDescription = "This is an amazing item that has a long description"

// --- Root ---

type MessageResp struct {
	Message string `json:"message"`
}

func handleRoot(_ context.Context, _ *api.Void) (*MessageResp, error) {
	return &MessageResp{Message: "Hello World"}, nil
}

// --- Files ---

type FileReq struct {
	FilePath string `path:"file_path" doc:"Rest of the path, slashes included"`
}

type FileResp struct {
	FilePath string `json:"file_path"`
}

func handleReadFile(_ context.Context, req *FileReq) (*FileResp, error) {
	return &FileResp{FilePath: "/" + req.FilePath}, nil
}

// --- Models ---

type ModelReq struct {
	ModelName ModelName `path:"model_name"`
}

type ModelResp struct {
	ModelName ModelName `json:"model_name"`
	Message   string    `json:"message"`
}

func handleGetModel(_ context.Context, req *ModelReq) (*ModelResp, error) {
	resp := &ModelResp{ModelName: req.ModelName}
	switch req.ModelName {
	case AlexNet:
		resp.Message = "Deep Learning FTW!"
	case LeNet:
		resp.Message = "LeCNN all the images"
	default:
		resp.Message = "Have some residuals"
	}
	return resp, nil
}

// --- List items ---

type ListItemsReq struct {
	Skip      int      `query:"skip" ge:"0" default:"0" doc:"Number of items to skip"`
	Limit     int      `query:"limit" ge:"0" default:"10" doc:"Max results"`
	Q         *string  `query:"q" alias:"item-query" minLength:"3" maxLength:"50" pattern:"^fixedquery$" deprecated:"true" doc:"Query string for the items to search in the database that have a good match"`
	AdsID     *string  `cookie:"ads_id"`
	UserAgent *string  `header:"User-Agent"`
	XToken    []string `header:"X-Token" doc:"Repeatable token header"`
}

type ListItemsResp struct {
	Items     []ItemRef `json:"items"`
	Q         *string   `json:"q,omitempty"`
	AdsID     *string   `json:"ads_id,omitempty"`
	UserAgent *string   `json:"User-Agent,omitempty"`
	XTokens   []string  `json:"X-Token values,omitempty"`
}

func handleListItems(_ context.Context, req *ListItemsReq) (*ListItemsResp, error) {
	start := min(req.Skip, len(fakeItems))
	end := min(start+req.Limit, len(fakeItems))

	return &ListItemsResp{
		Items:     fakeItems[start:end],
		Q:         req.Q,
		AdsID:     req.AdsID,
		UserAgent: req.UserAgent,
		XTokens:   req.XToken,
	}, nil
}

// --- Many items ---

type ManyItemsReq struct {
	Q []string `query:"q"`
}

type ManyItemsResp struct {
	Items []string `json:"items"`
}

func handleManyItems(_ context.Context, req *ManyItemsReq) (*ManyItemsResp, error) {
	return &ManyItemsResp{Items: req.Q}, nil
}

// --- Get item ---

type GetItemReq struct {
	ItemID int      `path:"item_id" ge:"0" le:"1000" doc:"The ID of the item to get"`
	Q      *string  `query:"q" alias:"item-query"`
	Size   *float64 `query:"size" gt:"0" lt:"10.5"`
}

type GetItemResp struct {
	ItemID int     `json:"item_id"`
	Q      *string `json:"q,omitempty"`
}

func handleGetItem(_ context.Context, req *GetItemReq) (*GetItemResp, error) {
	return &GetItemResp{ItemID: req.ItemID, Q: req.Q}, nil
}

// --- User item ---

type UserItemReq struct {
	UserID int     `path:"user_id"`
	ItemID string  `path:"item_id"`
	Short  bool    `query:"short" required:"true"`
	Q      *string `query:"q"`
}

type UserItemResp struct {
	ItemID      string  `json:"item_id"`
	OwnerID     int     `json:"owner_id"`
	Q           *string `json:"q,omitempty"`
	Description string  `json:"description,omitempty"`
}

func handleGetUserItem(_ context.Context, req *UserItemReq) (*UserItemResp, error) {
	resp := &UserItemResp{ItemID: req.ItemID, OwnerID: req.UserID, Q: req.Q}
	if !req.Short {
		resp.Description = longDescription
	}
	return resp, nil
}

// --- Create item ---

func handleCreateItem(_ context.Context, item *Item) (*Item, error) {
	out := *item
	if item.Tax != nil {
		total := item.Price + *item.Tax
		out.PriceWithTax = &total
	}
	return &out, nil
}

// --- Echo endpoints ---

func handleCreateOffer(_ context.Context, offer *Offer) (*Offer, error) {
	return offer, nil
}

func handleCreateImages(_ context.Context, images *[]Image) (*[]Image, error) {
	return images, nil
}

func handleIndexWeights(_ context.Context, weights *map[int]float64) (*map[int]float64, error) {
	return weights, nil
}

// handleCreateUser returns the input as is; the route's response model
// strips the password.
func handleCreateUser(_ context.Context, user *UserIn) (*UserIn, error) {
	return user, nil
}

// --- Update item ---

type UpdateItemReq struct {
	ItemID     int     `path:"item_id" ge:"0" le:"1000" doc:"The ID of the item to update"`
	Q          *string `query:"q"`
	Item       Item    `body:"item"`
	User       *User   `body:"user"`
	Importance int     `body:"importance" gt:"0"`
}

type UpdateItemResp struct {
	ItemID     int     `json:"item_id"`
	Item       Item    `json:"item"`
	User       *User   `json:"user,omitempty"`
	Importance int     `json:"importance"`
	Q          *string `json:"q,omitempty"`
}

func handleUpdateItem(_ context.Context, req *UpdateItemReq) (*UpdateItemResp, error) {
	return &UpdateItemResp{
		ItemID:     req.ItemID,
		Item:       req.Item,
		User:       req.User,
		Importance: req.Importance,
		Q:          req.Q,
	}, nil
}

// --- Health ---

// Sessions opens database sessions. *database.Factory implements it.
type Sessions interface {
	OpenSession(ctx context.Context) (*database.Session, error)
}

type HealthResp struct {
	Status string `json:"status"`
}

type health struct {
	sessions Sessions
	logger   *slog.Logger
}

func (h *health) handle(ctx context.Context, _ *api.Void) (*HealthResp, error) {
	if h.sessions == nil {
		return &HealthResp{Status: "ok"}, nil
	}

	sess, err := h.sessions.OpenSession(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "health check failed", "err", err)
		return nil, api.Error(http.StatusServiceUnavailable, "database unavailable")
	}
	defer func() {
		if err := sess.Close(); err != nil {
			h.logger.WarnContext(ctx, "failed to close session", "err", err)
		}
	}()

	if err := sess.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &HealthResp{Status: "ok"}, nil
}
