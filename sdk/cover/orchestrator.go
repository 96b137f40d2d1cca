// Package cover prices cover purchases and assembles the inputs of the cover
// contract's buy call.
//
// A quote moves through ValidatingInput, FetchingQuote, ComputingPremium,
// FetchingCapacity and AssemblingResult before ending in Success or Failure.
// Expected failures (bad input, upstream errors) are returned in
// Response.Error; arithmetic faults are returned as Go errors by Quote.
package cover

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"coversdk/core/content"
	"coversdk/core/premium"
	"coversdk/core/products"
	"coversdk/observability"
	"coversdk/observability/logging"
	"coversdk/sdk/ipfs"
	"coversdk/sdk/pricing"
)

// SomethingWentWrong is returned for failures whose details must not leak.
const SomethingWentWrong = "Something went wrong"

// State names a step of the quote flow.
type State string

const (
	StateValidatingInput  State = "ValidatingInput"
	StateFetchingQuote    State = "FetchingQuote"
	StateComputingPremium State = "ComputingPremium"
	StateFetchingCapacity State = "FetchingCapacity"
	StateAssemblingResult State = "AssemblingResult"
	StateSuccess          State = "Success"
	StateFailure          State = "Failure"
)

// PricingAPI is the subset of the pricing client the orchestrator calls.
type PricingAPI interface {
	GetQuote(ctx context.Context, params pricing.QuoteParams) (*pricing.QuoteResponse, error)
	GetCapacity(ctx context.Context, productID, period uint32) (*pricing.Capacity, error)
}

// Uploader stores cover metadata and returns its CID.
type Uploader interface {
	Upload(ctx context.Context, payload content.Content) (string, error)
}

// Orchestrator turns cover requests into purchase instructions. It holds no
// per-request state and is safe for concurrent use.
type Orchestrator struct {
	catalog         *products.Catalog
	pricing         PricingAPI
	uploader        Uploader
	logger          *slog.Logger
	metrics         *observability.QuoteMetrics
	tracer          trace.Tracer
	defaultSlippage decimal.Decimal
}

// Option customises an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics records quote outcomes and stage latencies.
func WithMetrics(m *observability.QuoteMetrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *Orchestrator) {
		if tracer != nil {
			o.tracer = tracer
		}
	}
}

// WithDefaultSlippage sets the slippage fraction applied when a request omits it.
func WithDefaultSlippage(fraction decimal.Decimal) Option {
	return func(o *Orchestrator) { o.defaultSlippage = fraction }
}

// New builds an orchestrator. uploader may be nil when callers never attach
// structured content.
func New(catalog *products.Catalog, api PricingAPI, uploader Uploader, opts ...Option) (*Orchestrator, error) {
	if catalog == nil {
		return nil, fmt.Errorf("cover: catalog required")
	}
	if api == nil {
		return nil, fmt.Errorf("cover: pricing api required")
	}
	o := &Orchestrator{
		catalog:         catalog,
		pricing:         api,
		uploader:        uploader,
		logger:          slog.Default(),
		tracer:          otel.Tracer("coversdk/sdk/cover"),
		defaultSlippage: defaultSlippage,
	}
	for _, opt := range opts {
		opt(o)
	}
	if _, err := premium.SlippageFromFraction(o.defaultSlippage); err != nil {
		return nil, fmt.Errorf("cover: default slippage: %w", err)
	}
	return o, nil
}

// GetQuoteAndBuyCoverInputs is Quote with internal faults folded into a
// generic error response.
func (o *Orchestrator) GetQuoteAndBuyCoverInputs(ctx context.Context, req Request) Response {
	resp, err := o.Quote(ctx, req)
	if err != nil {
		o.logger.ErrorContext(ctx, "quote failed", slog.Any("error", err))
		return failure(SomethingWentWrong)
	}
	return resp
}

// Quote validates req, prices it and assembles the purchase instruction.
// The returned error is non-nil only for internal arithmetic faults.
func (o *Orchestrator) Quote(ctx context.Context, req Request) (Response, error) {
	ctx, span := o.tracer.Start(ctx, "cover.Quote", trace.WithAttributes(
		attribute.Int64("cover.product_id", req.ProductID),
		attribute.Int64("cover.period_days", req.CoverPeriod),
		attribute.Int64("cover.asset", req.CoverAsset),
	))
	defer span.End()

	r := &run{o: o, ctx: ctx, span: span, logger: o.logger.With(
		slog.Int64("productId", req.ProductID),
		logging.MaskAddress("buyer", req.CoverBuyerAddress),
	)}

	r.enter(StateValidatingInput)
	in, msg := o.validate(req)
	if msg != "" {
		r.logger.DebugContext(ctx, "quote rejected", slog.String("reason", msg))
		return r.fail("invalid", failure(msg)), nil
	}

	ipfsData, errResp := o.resolveContent(r, in)
	if errResp != nil {
		return r.fail("upload_error", *errResp), nil
	}

	r.enter(StateFetchingQuote)
	quote, err := o.pricing.GetQuote(ctx, pricing.QuoteParams{
		ProductID:    in.productID,
		Amount:       pricing.NewAmount(in.amount),
		Period:       in.periodDays,
		CoverAsset:   in.asset.ID,
		PaymentAsset: in.asset.ID,
	})
	if err != nil {
		return r.fail("upstream_error", o.quoteFailure(r, in, err)), nil
	}
	if quote == nil || quote.Quote == nil {
		r.logger.ErrorContext(ctx, "pricing returned no quote")
		return r.fail("upstream_error", failure(SomethingWentWrong)), nil
	}

	r.enter(StateComputingPremium)
	commission := o.catalog.Commission(in.productType.ID)
	maxPremium, err := premium.WithCommissionAndSlippage(quote.Quote.PremiumInAsset.Int(), commission.Ratio, in.slippage)
	if err != nil {
		return r.fault(fmt.Errorf("premium in asset: %w", err))
	}
	annualPrice, err := premium.WithCommissionAndSlippage(quote.Quote.AnnualPrice.Int(), commission.Ratio, in.slippage)
	if err != nil {
		return r.fault(fmt.Errorf("annual price: %w", err))
	}

	r.enter(StateFetchingCapacity)
	maxCapacity := ""
	capacity, err := o.pricing.GetCapacity(ctx, in.productID, in.periodDays)
	if err != nil {
		r.logger.WarnContext(ctx, "capacity unavailable", slog.Any("error", err))
	} else if amount, ok := capacity.ForAsset(in.asset.ID); ok {
		maxCapacity = amount.String()
	}

	r.enter(StateAssemblingResult)
	result := &PurchaseInstruction{
		DisplayInfo: DisplayInfo{
			PremiumInAsset:    maxPremium.String(),
			CoverAmount:       in.amount.String(),
			YearlyCostPerc:    premium.YearlyCostPercentage(annualPrice),
			MaxCapacity:       maxCapacity,
			TotalPoolCapacity: pricing.SumPoolCapacities(quote.Capacities).String(),
		},
		BuyCoverInput: BuyCoverInput{
			BuyCoverParams: BuyCoverParams{
				CoverID:               "0",
				Owner:                 in.owner,
				ProductID:             in.productID,
				CoverAsset:            in.asset.ID,
				Amount:                in.amount.String(),
				Period:                periodSeconds(in.periodDays),
				MaxPremiumInAsset:     maxPremium.String(),
				PaymentAsset:          in.asset.ID,
				CommissionRatio:       commission.Ratio,
				CommissionDestination: commission.Destination,
				IPFSData:              ipfsData,
			},
			PoolAllocationRequests: append([]pricing.PoolAllocationRequest(nil), quote.Quote.PoolAllocationRequests...),
		},
	}
	r.enter(StateSuccess)
	o.metrics.RecordOutcome("success")
	r.logger.InfoContext(ctx, "quote assembled",
		slog.String("premiumInAsset", result.DisplayInfo.PremiumInAsset),
		slog.String("yearlyCostPerc", result.DisplayInfo.YearlyCostPerc))
	return Response{Result: result}, nil
}

// resolveContent turns the request's metadata reference into the ipfsData
// field, validating and uploading structured content.
func (o *Orchestrator) resolveContent(r *run, in *validated) (string, *Response) {
	switch in.ref.kind {
	case refEmpty:
		return "", nil
	case refCID:
		return in.ref.cid, nil
	}

	payload := in.ref.content
	if in.ref.kind == refRaw {
		if in.required == "" {
			resp := failure(fmt.Sprintf("Invalid ipfsCidOrContent: product type %s does not accept content objects", in.productType.Name))
			return "", &resp
		}
		decoded, err := content.Decode(in.required, in.ref.raw)
		if err != nil {
			resp := failure(err.Error())
			return "", &resp
		}
		payload = decoded
	}
	if err := payload.Validate(); err != nil {
		resp := failure(err.Error())
		return "", &resp
	}
	if o.uploader == nil {
		resp := failure("Failed to upload IPFS content: no uploader configured")
		return "", &resp
	}
	cid, err := o.uploader.Upload(r.ctx, payload)
	o.metrics.RecordUpload(err == nil)
	if err != nil {
		resp := failure(o.uploadFailure(r, err))
		return "", &resp
	}
	return cid, nil
}

// uploadFailure logs the upload error in full and returns a message that
// names only the status or the kind of failure.
func (o *Orchestrator) uploadFailure(r *run, err error) string {
	const prefix = "Failed to upload IPFS content"
	var uploadErr *ipfs.UploadError
	switch {
	case errors.As(err, &uploadErr):
		r.logger.WarnContext(r.ctx, "ipfs upload rejected",
			slog.Int("status", uploadErr.Status),
			slog.String("body", uploadErr.Body))
		return fmt.Sprintf("%s: upload service returned status %d", prefix, uploadErr.Status)
	case errors.Is(err, ipfs.ErrMissingHash):
		r.logger.WarnContext(r.ctx, "ipfs upload returned no hash")
		return prefix + ": upload service returned no content identifier"
	default:
		r.logger.WarnContext(r.ctx, "ipfs upload failed", slog.Any("error", err))
		return prefix + ": upload service unavailable"
	}
}

// quoteFailure maps a pricing error to a response, recovering the available
// capacity when the pools could not cover the amount.
func (o *Orchestrator) quoteFailure(r *run, in *validated, err error) Response {
	var apiErr *pricing.APIError
	if !errors.As(err, &apiErr) {
		r.logger.ErrorContext(r.ctx, "pricing request failed", slog.Any("error", err))
		return failure(SomethingWentWrong)
	}
	if !pricing.IsNotEnoughCapacity(err) {
		if apiErr.Message == "" {
			return failure(SomethingWentWrong)
		}
		return failure(apiErr.Message)
	}

	resp := failure(apiErr.Message)
	capacity, capErr := o.pricing.GetCapacity(r.ctx, in.productID, in.periodDays)
	if capErr != nil {
		o.metrics.RecordCapacityRecovery(false)
		r.logger.WarnContext(r.ctx, "capacity recovery failed", slog.Any("error", capErr))
		return resp
	}
	amount, ok := capacity.ForAsset(in.asset.ID)
	o.metrics.RecordCapacityRecovery(ok)
	if ok {
		resp.Error.Data = &ErrorData{MaxCapacity: amount.String()}
	}
	return resp
}

func failure(msg string) Response {
	return Response{Error: &Error{Message: msg}}
}

// run tracks one request's progress through the states.
type run struct {
	o       *Orchestrator
	ctx     context.Context
	span    trace.Span
	logger  *slog.Logger
	state   State
	entered time.Time
}

func (r *run) enter(next State) {
	now := time.Now()
	if r.state != "" {
		r.o.metrics.ObserveStage(string(r.state), now.Sub(r.entered))
	}
	r.state = next
	r.entered = now
	r.span.AddEvent(string(next))
	r.logger.DebugContext(r.ctx, "quote state", slog.String("state", string(next)))
}

func (r *run) fail(outcome string, resp Response) Response {
	r.enter(StateFailure)
	r.o.metrics.RecordOutcome(outcome)
	r.span.SetStatus(codes.Error, resp.Error.Message)
	return resp
}

func (r *run) fault(err error) (Response, error) {
	r.enter(StateFailure)
	r.o.metrics.RecordOutcome("internal_error")
	r.span.RecordError(err)
	r.span.SetStatus(codes.Error, "internal error")
	return Response{}, err
}
