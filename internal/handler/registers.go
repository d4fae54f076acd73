package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"posagent/internal/apierror"
	"posagent/internal/batch"
	"posagent/internal/billing"
	"posagent/internal/cart"
	"posagent/internal/catalog"
	"posagent/internal/dto"
	"posagent/internal/infra"
	"posagent/internal/model"
	"posagent/internal/pricing"
	"posagent/internal/register"
	"posagent/internal/settings"
	"posagent/internal/shift"
	"posagent/internal/upstream"
)

// BatchSource is the backend surface the allocation endpoints need.
type BatchSource interface {
	ProductBatches(ctx context.Context, productID int64) ([]model.ProductBatch, error)
}

type RegistersHandler struct {
	mgr      *register.Manager
	coord    *billing.Coordinator
	gate     *shift.Gate
	batches  BatchSource
	cat      *catalog.Service
	settings *settings.Store
	mailer   *infra.Mailer
	receipts ReceiptRenderer
}

// ReceiptRenderer turns a confirmed bill into a printable file.
type ReceiptRenderer func(bill *model.Bill, ps settings.PrinterSettings) (string, error)

func NewRegistersHandler(
	mgr *register.Manager,
	coord *billing.Coordinator,
	gate *shift.Gate,
	batches BatchSource,
	cat *catalog.Service,
	st *settings.Store,
	mailer *infra.Mailer,
	receipts ReceiptRenderer,
) *RegistersHandler {
	return &RegistersHandler{
		mgr:      mgr,
		coord:    coord,
		gate:     gate,
		batches:  batches,
		cat:      cat,
		settings: st,
		mailer:   mailer,
		receipts: receipts,
	}
}

func (h *RegistersHandler) session(c *gin.Context) (*register.Session, bool) {
	s, err := h.mgr.Get(c.Param("register"))
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
		return nil, false
	}
	return s, true
}

// sellSession additionally enforces the shift gate: sell-side carts may not
// be mutated without an open shift, matching the selling screens being
// unreachable before one.
func (h *RegistersHandler) sellSession(c *gin.Context) (*register.Session, bool) {
	s, ok := h.session(c)
	if !ok {
		return nil, false
	}
	if register.SellSide(s.ID()) {
		if _, err := h.gate.Require(c.Request.Context()); err != nil {
			c.JSON(http.StatusConflict, apierror.New(err.Error()))
			return nil, false
		}
	}
	return s, true
}

func (h *RegistersHandler) printerSettings(c *gin.Context) settings.PrinterSettings {
	if h.settings == nil {
		return settings.DefaultPrinterSettings()
	}
	ps, err := h.settings.GetPrinter(c.Request.Context())
	if err != nil {
		return settings.DefaultPrinterSettings()
	}
	return ps
}

// State returns the register's full view: lines, checkout fields, totals.
func (h *RegistersHandler) State(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

// FeedKeys forwards a burst of keystrokes into the register's decoders and
// reports what each one did, in order.
func (h *RegistersHandler) FeedKeys(c *gin.Context) {
	s, ok := h.sellSession(c)
	if !ok {
		return
	}
	var req dto.FeedKeysRequest
	if !bindAndValidate(c, &req) {
		return
	}
	results := make([]register.FeedResult, 0, len(req.Keys))
	for _, ev := range req.Keys {
		results = append(results, s.FeedKey(c.Request.Context(), ev))
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// AddLine adds a product picked from the autocomplete (or re-picked: the
// cart dedupes by product id, so an existing line gains quantity instead).
func (h *RegistersHandler) AddLine(c *gin.Context) {
	s, ok := h.sellSession(c)
	if !ok {
		return
	}
	var req dto.AddLineRequest
	if !bindAndValidate(c, &req) {
		return
	}
	line, err := s.AddProduct(c.Request.Context(), req.ProductID)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New(fmt.Sprintf("no product with id %d", req.ProductID)))
		return
	}
	c.JSON(http.StatusCreated, line)
}

func (h *RegistersHandler) EditLine(c *gin.Context) {
	s, ok := h.sellSession(c)
	if !ok {
		return
	}
	productID, ok := paramID(c, "product_id")
	if !ok {
		return
	}
	var req dto.EditLineRequest
	if !bindAndValidate(c, &req) {
		return
	}
	line, err := s.EditLine(c.Request.Context(), productID, register.LineEdit{
		Quantity:       req.Quantity,
		Price:          req.Price,
		WholesalePrice: req.WholesalePrice,
	})
	if err != nil {
		if errors.Is(err, cart.ErrLineNotFound) {
			c.JSON(http.StatusNotFound, apierror.New(err.Error()))
			return
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, line)
}

func (h *RegistersHandler) RemoveLine(c *gin.Context) {
	s, ok := h.sellSession(c)
	if !ok {
		return
	}
	productID, ok := paramID(c, "product_id")
	if !ok {
		return
	}
	s.RemoveLine(c.Request.Context(), productID)
	c.Status(http.StatusNoContent)
}

func (h *RegistersHandler) ClearCart(c *gin.Context) {
	s, ok := h.sellSession(c)
	if !ok {
		return
	}
	s.ClearCart(c.Request.Context())
	c.Status(http.StatusNoContent)
}

// SetFields edits the pending checkout fields (move type, discount, paid,
// installment plan). Absent fields are untouched.
func (h *RegistersHandler) SetFields(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req dto.FieldsRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if req.MoveType != nil {
		if err := s.SetMoveType(pricing.MoveType(*req.MoveType)); err != nil {
			c.JSON(http.StatusUnprocessableEntity, apierror.New(err.Error()))
			return
		}
	}
	if req.Discount != nil {
		s.SetDiscount(*req.Discount)
	}
	if req.Paid != nil {
		s.SetPaid(*req.Paid)
	}
	if req.Installments != nil || req.InstallmentInterval != nil {
		view := s.Snapshot()
		count, interval := view.Installments, view.InstallmentInterval
		if req.Installments != nil {
			count = *req.Installments
		}
		if req.InstallmentInterval != nil {
			interval = *req.InstallmentInterval
		}
		s.SetInstallments(count, interval)
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

// AttachParty binds a party to the pending bill: either an existing id or a
// staged new party that checkout will create upstream first.
func (h *RegistersHandler) AttachParty(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req dto.PartyAttachRequest
	if !bindAndValidate(c, &req) {
		return
	}
	switch {
	case req.PartyID != nil && req.NewParty != nil:
		c.JSON(http.StatusBadRequest, apierror.New("send party_id or new_party, not both"))
		return
	case req.PartyID != nil:
		s.AttachParty(*req.PartyID)
	case req.NewParty != nil:
		s.AttachPendingParty(*req.NewParty)
	default:
		c.JSON(http.StatusBadRequest, apierror.New("party_id or new_party required"))
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

func (h *RegistersHandler) DetachParty(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	s.DetachParty()
	c.Status(http.StatusNoContent)
}

// ProposeAllocation fetches the product's lots from the backend and returns
// a first-expire-first-out split covering the line's quantity, for the
// operator to confirm or rework in the allocation modal.
func (h *RegistersHandler) ProposeAllocation(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	productID, ok := paramID(c, "product_id")
	if !ok {
		return
	}
	line, found := s.Line(productID)
	if !found {
		c.JSON(http.StatusNotFound, apierror.New(cart.ErrLineNotFound.Error()))
		return
	}
	available, err := h.batches.ProductBatches(c.Request.Context(), productID)
	if err != nil {
		writeUpstreamError(c, err)
		return
	}
	proposal := batch.Propose(available, line.Quantity)
	c.JSON(http.StatusOK, gin.H{
		"requested": line.Quantity,
		"available": available,
		"proposal":  proposal,
	})
}

// CommitAllocation stores the operator-confirmed split on the line. The
// split must reconcile exactly to the line quantity; an empty split clears
// the allocation.
func (h *RegistersHandler) CommitAllocation(c *gin.Context) {
	s, ok := h.sellSession(c)
	if !ok {
		return
	}
	productID, ok := paramID(c, "product_id")
	if !ok {
		return
	}
	line, found := s.Line(productID)
	if !found {
		c.JSON(http.StatusNotFound, apierror.New(cart.ErrLineNotFound.Error()))
		return
	}
	var req dto.AllocationCommitRequest
	if !bindAndValidate(c, &req) {
		return
	}

	// an empty split clears the allocation; nothing to check against lots
	if len(req.Batches) == 0 {
		if err := s.SetBatches(c.Request.Context(), productID, nil); err != nil {
			c.JSON(http.StatusNotFound, apierror.New(err.Error()))
			return
		}
		c.Status(http.StatusNoContent)
		return
	}

	available, err := h.batches.ProductBatches(c.Request.Context(), productID)
	if err != nil {
		writeUpstreamError(c, err)
		return
	}
	assignments, aerr := resolveAssignments(req.Batches, available)
	if aerr != nil {
		c.JSON(http.StatusUnprocessableEntity, apierror.New(aerr.Error()))
		return
	}
	if err := batch.Validate(assignments, line.Quantity); err != nil {
		c.JSON(http.StatusUnprocessableEntity, apierror.New(err.Error()))
		return
	}
	if err := s.SetBatches(c.Request.Context(), productID, batch.Selections(assignments)); err != nil {
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
		return
	}
	c.Status(http.StatusNoContent)
}

// resolveAssignments matches the operator's split back to the product's live
// lots. Every row must name a known lot and stay within what it holds —
// committing more than a lot's availability would hand the backend a
// deduction it cannot perform.
func resolveAssignments(selected []model.BatchSelection, available []model.ProductBatch) ([]batch.Assignment, error) {
	find := func(id *int64) (model.ProductBatch, bool) {
		for _, lot := range available {
			switch {
			case id == nil && lot.BatchID == nil:
				return lot, true
			case id != nil && lot.BatchID != nil && *id == *lot.BatchID:
				return lot, true
			}
		}
		return model.ProductBatch{}, false
	}

	assignments := make([]batch.Assignment, 0, len(selected))
	for _, sel := range selected {
		lot, ok := find(sel.BatchID)
		if !ok {
			if sel.BatchID != nil {
				return nil, fmt.Errorf("lot %d is not available for this product", *sel.BatchID)
			}
			return nil, fmt.Errorf("this product has no undated lot")
		}
		if sel.Quantity < 0 {
			return nil, fmt.Errorf("lot quantities must not be negative")
		}
		if batch.Clamp(sel.Quantity, lot.Quantity) != sel.Quantity {
			return nil, fmt.Errorf("lot assignment of %d exceeds the %d units available", sel.Quantity, lot.Quantity)
		}
		assignments = append(assignments, batch.Assignment{Batch: lot, Quantity: sel.Quantity})
	}
	return assignments, nil
}

// Checkout submits the register's current state as a bill. Selling registers
// are gated on an open shift. A second trigger while one runs is refused,
// and an unclear upstream outcome comes back as the ambiguous envelope.
func (h *RegistersHandler) Checkout(c *gin.Context) {
	s, ok := h.sellSession(c)
	if !ok {
		return
	}
	var req dto.CheckoutRequest
	if !bindAndValidate(c, &req) {
		return
	}

	registerID := s.ID()
	view := s.Snapshot()
	bill, err := h.coord.Submit(c.Request.Context(), billing.Checkout{
		Register:            registerID,
		MoveType:            view.MoveType,
		Lines:               view.Lines,
		Discount:            view.Discount,
		Paid:                view.Paid,
		Installments:        view.Installments,
		InstallmentInterval: view.InstallmentInterval,
		PartyID:             view.PartyID,
		PendingParty:        view.PendingParty,
	})
	if err != nil {
		h.writeCheckoutError(c, s, err)
		return
	}

	// success is the only path that touches the cart
	s.ResetAfterSubmit(c.Request.Context(), register.DefaultMove(registerID))
	s.SetLastBill(bill)

	resp := dto.CheckoutResponse{Bill: bill}
	if req.Print {
		path, rerr := h.receipts(bill, h.printerSettings(c))
		if rerr != nil {
			log.Error().Err(rerr).Int64("bill_id", bill.ID).Msg("receipt render failed")
		} else {
			resp.ReceiptPath = path
		}
	}

	// stock moved on the backend; refresh the cached catalog off-request
	go func() {
		if err := h.cat.Refresh(context.Background()); err != nil {
			log.Warn().Err(err).Msg("post-checkout catalog refresh failed")
		}
	}()

	c.JSON(http.StatusCreated, resp)
}

// Reprint re-renders the register's last confirmed bill.
func (h *RegistersHandler) Reprint(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	bill := s.LastBill()
	if bill == nil {
		c.JSON(http.StatusNotFound, apierror.New("no bill to reprint on this register"))
		return
	}
	path, err := h.receipts(bill, h.printerSettings(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("receipt render failed: "+err.Error()))
		return
	}
	c.JSON(http.StatusOK, dto.CheckoutResponse{Bill: bill, ReceiptPath: path})
}

func (h *RegistersHandler) writeCheckoutError(c *gin.Context, s *register.Session, err error) {
	var ambiguous *billing.AmbiguousError
	switch {
	case errors.Is(err, billing.ErrSubmitInFlight):
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	case errors.As(err, &ambiguous):
		// the party call landed even though the bill did not: swap the
		// staged party for its persisted id so a retry reuses it
		if ambiguous.CreatedPartyID != nil {
			s.AttachParty(*ambiguous.CreatedPartyID)
		}
		if h.mailer.Enabled() {
			go func() {
				subject := fmt.Sprintf("posagent: ambiguous bill on register %s", s.ID())
				if merr := h.mailer.SendAlert(subject, ambiguous.Error()); merr != nil {
					log.Warn().Err(merr).Msg("ambiguous-bill alert mail failed")
				}
			}()
		}
		c.JSON(http.StatusBadGateway, apierror.NewAmbiguous(ambiguous.Cause.Error(), ambiguous.EntryID))
	default:
		c.JSON(http.StatusUnprocessableEntity, apierror.New(err.Error()))
	}
}

func writeUpstreamError(c *gin.Context, err error) {
	if errors.Is(err, upstream.ErrBackendUnavailable) {
		c.JSON(http.StatusBadGateway, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusBadGateway, apierror.New("store backend error: "+err.Error()))
}
