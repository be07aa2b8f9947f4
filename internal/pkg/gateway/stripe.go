package gateway

import (
	"context"
	"encoding/json"
	"errors"

	stripe "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/qs3c/bookstore_go_server/config"
)

// StripeGateway Gateway 的 Stripe 实现
type StripeGateway struct {
	api           *client.API
	currency      string
	webhookSecret string
}

var _ Gateway = (*StripeGateway)(nil)

func NewStripeGateway(cfg *config.StripeConfig) *StripeGateway {
	currency := cfg.Currency
	if currency == "" {
		currency = "gbp"
	}
	return &StripeGateway{
		api:           client.New(cfg.SecretKey, nil),
		currency:      currency,
		webhookSecret: cfg.WebhookSecret,
	}
}

// wrap 统一包装网关错误，保留 Stripe 返回的错误消息
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *stripe.Error
	if errors.As(err, &se) {
		return &Error{Op: op, Message: se.Msg, Err: err}
	}
	return &Error{Op: op, Err: err}
}

func (g *StripeGateway) CreateCustomer(ctx context.Context, name, email, testClockID string) (string, error) {
	params := &stripe.CustomerParams{
		Name:  stripe.String(name),
		Email: stripe.String(email),
	}
	if testClockID != "" {
		params.TestClock = stripe.String(testClockID)
	}
	params.Context = ctx

	customer, err := g.api.Customers.New(params)
	if err != nil {
		return "", wrap("create customer", err)
	}
	return customer.ID, nil
}

func (g *StripeGateway) CreatePlan(ctx context.Context, name string, amount int64) (string, string, error) {
	productParams := &stripe.ProductParams{Name: stripe.String(name)}
	productParams.Context = ctx
	product, err := g.api.Products.New(productParams)
	if err != nil {
		return "", "", wrap("create product", err)
	}

	priceParams := &stripe.PriceParams{
		Currency:   stripe.String(g.currency),
		UnitAmount: stripe.Int64(amount),
		Recurring: &stripe.PriceRecurringParams{
			Interval: stripe.String("month"),
		},
		Product: stripe.String(product.ID),
	}
	priceParams.Context = ctx
	price, err := g.api.Prices.New(priceParams)
	if err != nil {
		return "", "", wrap("create price", err)
	}

	planParams := &stripe.PlanParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(g.currency),
		Interval: stripe.String("month"),
		Product:  &stripe.PlanProductParams{ID: stripe.String(product.ID)},
	}
	planParams.Context = ctx
	plan, err := g.api.Plans.New(planParams)
	if err != nil {
		return "", "", wrap("create plan", err)
	}

	return plan.ID, price.ID, nil
}

func (g *StripeGateway) RetrievePlan(ctx context.Context, planID string) (*PlanDetails, error) {
	params := &stripe.PlanParams{}
	params.Context = ctx
	plan, err := g.api.Plans.Get(planID, params)
	if err != nil {
		return nil, wrap("retrieve plan", err)
	}
	return &PlanDetails{
		ID:       plan.ID,
		Amount:   plan.Amount,
		Currency: string(plan.Currency),
		Interval: string(plan.Interval),
		Active:   plan.Active,
	}, nil
}

func (g *StripeGateway) CreateSubscription(ctx context.Context, p SubscriptionParams) (*Subscription, error) {
	params := &stripe.SubscriptionParams{
		Customer: stripe.String(p.CustomerID),
		Items: []*stripe.SubscriptionItemsParams{
			{Plan: stripe.String(p.PlanID)},
		},
	}
	if len(p.TaxRateIDs) > 0 {
		params.DefaultTaxRates = stripe.StringSlice(p.TaxRateIDs)
	}
	if p.TrialDays > 0 {
		params.TrialPeriodDays = stripe.Int64(p.TrialDays)
	}
	if p.CouponID != "" {
		params.Coupon = stripe.String(p.CouponID)
	}
	params.Context = ctx

	sub, err := g.api.Subscriptions.New(params)
	if err != nil {
		return nil, wrap("create subscription", err)
	}
	return fromStripeSubscription(sub), nil
}

func (g *StripeGateway) RetrieveSubscription(ctx context.Context, id string) (*Subscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx
	sub, err := g.api.Subscriptions.Get(id, params)
	if err != nil {
		return nil, wrap("retrieve subscription", err)
	}
	return fromStripeSubscription(sub), nil
}

func (g *StripeGateway) CancelSubscription(ctx context.Context, id string, prorate bool) error {
	params := &stripe.SubscriptionCancelParams{}
	if prorate {
		params.Prorate = stripe.Bool(true)
	}
	params.Context = ctx
	_, err := g.api.Subscriptions.Cancel(id, params)
	return wrap("cancel subscription", err)
}

func (g *StripeGateway) SetCancelAtPeriodEnd(ctx context.Context, id string) (*Subscription, error) {
	params := &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(true),
	}
	params.Context = ctx
	sub, err := g.api.Subscriptions.Update(id, params)
	if err != nil {
		return nil, wrap("update subscription", err)
	}
	return fromStripeSubscription(sub), nil
}

func (g *StripeGateway) PauseCollection(ctx context.Context, id string) (*Subscription, error) {
	params := &stripe.SubscriptionParams{
		PauseCollection: &stripe.SubscriptionPauseCollectionParams{
			Behavior: stripe.String("mark_uncollectible"),
		},
	}
	params.Context = ctx
	sub, err := g.api.Subscriptions.Update(id, params)
	if err != nil {
		return nil, wrap("pause collection", err)
	}
	return fromStripeSubscription(sub), nil
}

func (g *StripeGateway) ResumeCollection(ctx context.Context, id string) (*Subscription, error) {
	// 置空 pause_collection 需要发送空值
	params := &stripe.SubscriptionParams{}
	params.AddExtra("pause_collection", "")
	params.Context = ctx
	sub, err := g.api.Subscriptions.Update(id, params)
	if err != nil {
		return nil, wrap("resume collection", err)
	}
	return fromStripeSubscription(sub), nil
}

func (g *StripeGateway) CreateSchedule(ctx context.Context, p ScheduleParams) (string, error) {
	phase := &stripe.SubscriptionSchedulePhaseParams{
		Items: []*stripe.SubscriptionSchedulePhaseItemParams{
			{Plan: stripe.String(p.PlanID)},
		},
	}
	if len(p.TaxRateIDs) > 0 {
		phase.DefaultTaxRates = stripe.StringSlice(p.TaxRateIDs)
	}
	if p.CouponID != "" {
		phase.Coupon = stripe.String(p.CouponID)
	}

	params := &stripe.SubscriptionScheduleParams{
		Customer:    stripe.String(p.CustomerID),
		StartDate:   stripe.Int64(p.StartDate),
		EndBehavior: stripe.String("release"),
		Phases:      []*stripe.SubscriptionSchedulePhaseParams{phase},
	}
	params.Context = ctx

	schedule, err := g.api.SubscriptionSchedules.New(params)
	if err != nil {
		return "", wrap("create schedule", err)
	}
	return schedule.ID, nil
}

func (g *StripeGateway) ReleaseSchedule(ctx context.Context, id string) error {
	params := &stripe.SubscriptionScheduleReleaseParams{}
	params.Context = ctx
	_, err := g.api.SubscriptionSchedules.Release(id, params)
	return wrap("release schedule", err)
}

func (g *StripeGateway) RefundLatestCharge(ctx context.Context, invoiceID string, amount int64) (string, error) {
	invoiceParams := &stripe.InvoiceParams{}
	invoiceParams.Context = ctx
	invoice, err := g.api.Invoices.Get(invoiceID, invoiceParams)
	if err != nil {
		return "", wrap("retrieve invoice", err)
	}
	if invoice.PaymentIntent == nil {
		return "", nil
	}

	piParams := &stripe.PaymentIntentParams{}
	piParams.Context = ctx
	intent, err := g.api.PaymentIntents.Get(invoice.PaymentIntent.ID, piParams)
	if err != nil {
		return "", wrap("retrieve payment intent", err)
	}
	if intent.LatestCharge == nil {
		return "", nil
	}

	refundParams := &stripe.RefundParams{
		Charge: stripe.String(intent.LatestCharge.ID),
		Amount: stripe.Int64(amount),
	}
	refundParams.Context = ctx
	refund, err := g.api.Refunds.New(refundParams)
	if err != nil {
		return "", wrap("create refund", err)
	}
	return refund.ID, nil
}

func (g *StripeGateway) CreateCoupon(ctx context.Context, name string, percentOff float64) (string, error) {
	params := &stripe.CouponParams{
		Name:       stripe.String(name),
		PercentOff: stripe.Float64(percentOff),
	}
	params.Context = ctx
	coupon, err := g.api.Coupons.New(params)
	if err != nil {
		return "", wrap("create coupon", err)
	}
	return coupon.ID, nil
}

func (g *StripeGateway) CreatePromotionCode(ctx context.Context, couponID string) (string, error) {
	params := &stripe.PromotionCodeParams{
		Coupon: stripe.String(couponID),
	}
	params.Context = ctx
	code, err := g.api.PromotionCodes.New(params)
	if err != nil {
		return "", wrap("create promotion code", err)
	}
	return code.ID, nil
}

func (g *StripeGateway) CreateTaxRate(ctx context.Context, p TaxRateParams) (string, error) {
	params := &stripe.TaxRateParams{
		DisplayName: stripe.String(p.DisplayName),
		Percentage:  stripe.Float64(p.Percentage),
		Inclusive:   stripe.Bool(p.Inclusive),
	}
	if p.Description != "" {
		params.Description = stripe.String(p.Description)
	}
	if p.Jurisdiction != "" {
		params.Jurisdiction = stripe.String(p.Jurisdiction)
	}
	if p.Country != "" {
		params.Country = stripe.String(p.Country)
	}
	params.Context = ctx

	taxRate, err := g.api.TaxRates.New(params)
	if err != nil {
		return "", wrap("create tax rate", err)
	}
	return taxRate.ID, nil
}

func (g *StripeGateway) RetrieveTaxRate(ctx context.Context, id string) (*TaxRateDetails, error) {
	params := &stripe.TaxRateParams{}
	params.Context = ctx
	taxRate, err := g.api.TaxRates.Get(id, params)
	if err != nil {
		return nil, wrap("retrieve tax rate", err)
	}
	return &TaxRateDetails{
		ID:          taxRate.ID,
		DisplayName: taxRate.DisplayName,
		Percentage:  taxRate.Percentage,
		Inclusive:   taxRate.Inclusive,
		Active:      taxRate.Active,
	}, nil
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, p CheckoutParams) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer: stripe.String(p.CustomerID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(p.PriceID),
				Quantity: stripe.Int64(p.Quantity),
			},
		},
		SuccessURL: stripe.String(p.SuccessURL),
		CancelURL:  stripe.String(p.CancelURL),
	}
	params.Context = ctx

	session, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return "", wrap("create checkout session", err)
	}
	return session.URL, nil
}

func (g *StripeGateway) CreateBillingPortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx

	session, err := g.api.BillingPortalSessions.New(params)
	if err != nil {
		return "", wrap("create billing portal session", err)
	}
	return session.URL, nil
}

func (g *StripeGateway) CreatePaymentIntent(ctx context.Context, p PaymentIntentParams) (string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(p.Amount),
		Currency: stripe.String(g.currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if p.CustomerID != "" {
		params.Customer = stripe.String(p.CustomerID)
	}
	if p.PaymentMethodID != "" {
		params.PaymentMethod = stripe.String(p.PaymentMethodID)
	}
	if p.Confirm {
		params.Confirm = stripe.Bool(true)
	}
	params.Context = ctx

	intent, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return "", wrap("create payment intent", err)
	}
	return intent.ID, nil
}

func (g *StripeGateway) CreateCardholder(ctx context.Context, p CardholderParams) (string, error) {
	params := &stripe.IssuingCardholderParams{
		Name:        stripe.String(p.FirstName + " " + p.LastName),
		Email:       stripe.String(p.Email),
		Status:      stripe.String("active"),
		Type:        stripe.String("individual"),
		Individual: &stripe.IssuingCardholderIndividualParams{
			FirstName: stripe.String(p.FirstName),
			LastName:  stripe.String(p.LastName),
		},
		Billing: &stripe.IssuingCardholderBillingParams{
			Address: &stripe.AddressParams{
				Line1:      stripe.String("123 Main Street"),
				City:       stripe.String("London"),
				PostalCode: stripe.String("EC1A 1BB"),
				Country:    stripe.String("GB"),
			},
		},
	}
	if p.Phone != "" {
		params.PhoneNumber = stripe.String(p.Phone)
	}
	params.Context = ctx

	cardholder, err := g.api.IssuingCardholders.New(params)
	if err != nil {
		return "", wrap("create cardholder", err)
	}
	return cardholder.ID, nil
}

func (g *StripeGateway) CreateCard(ctx context.Context, cardholderID string) (*Card, error) {
	params := &stripe.IssuingCardParams{
		Cardholder: stripe.String(cardholderID),
		Currency:   stripe.String(g.currency),
		Type:       stripe.String("virtual"),
		Status:     stripe.String("active"),
	}
	params.Context = ctx

	card, err := g.api.IssuingCards.New(params)
	if err != nil {
		return nil, wrap("create card", err)
	}
	return &Card{
		ID:     card.ID,
		Last4:  card.Last4,
		Status: string(card.Status),
	}, nil
}

func (g *StripeGateway) CreatePaymentMethod(ctx context.Context, token string) (string, error) {
	params := &stripe.PaymentMethodParams{
		Type: stripe.String("card"),
		Card: &stripe.PaymentMethodCardParams{
			Token: stripe.String(token),
		},
	}
	params.Context = ctx

	method, err := g.api.PaymentMethods.New(params)
	if err != nil {
		return "", wrap("create payment method", err)
	}
	return method.ID, nil
}

func (g *StripeGateway) AttachPaymentMethod(ctx context.Context, paymentMethodID, customerID string) error {
	params := &stripe.PaymentMethodAttachParams{
		Customer: stripe.String(customerID),
	}
	params.Context = ctx
	_, err := g.api.PaymentMethods.Attach(paymentMethodID, params)
	return wrap("attach payment method", err)
}

func (g *StripeGateway) CreateTestClock(ctx context.Context, frozenTime int64) (string, error) {
	params := &stripe.TestHelpersTestClockParams{
		FrozenTime: stripe.Int64(frozenTime),
	}
	params.Context = ctx

	clock, err := g.api.TestHelpersTestClocks.New(params)
	if err != nil {
		return "", wrap("create test clock", err)
	}
	return clock.ID, nil
}

func (g *StripeGateway) AdvanceTestClock(ctx context.Context, clockID string, frozenTime int64) error {
	params := &stripe.TestHelpersTestClockAdvanceParams{
		FrozenTime: stripe.Int64(frozenTime),
	}
	params.Context = ctx
	_, err := g.api.TestHelpersTestClocks.Advance(clockID, params)
	return wrap("advance test clock", err)
}

func (g *StripeGateway) ConstructEvent(payload []byte, signature string) (*Event, error) {
	stripeEvent, err := webhook.ConstructEvent(payload, signature, g.webhookSecret)
	if err != nil {
		return nil, wrap("construct event", err)
	}

	event := &Event{Type: string(stripeEvent.Type)}

	switch event.Type {
	case "subscription_schedule.updated":
		var schedule stripe.SubscriptionSchedule
		if err := json.Unmarshal(stripeEvent.Data.Raw, &schedule); err != nil {
			return nil, wrap("decode event", err)
		}
		event.Kind = EventScheduleUpdated
		event.ScheduleID = schedule.ID
		event.ScheduleStatus = string(schedule.Status)
		if schedule.Subscription != nil {
			event.SubscriptionID = schedule.Subscription.ID
		}
		if schedule.Customer != nil {
			event.CustomerID = schedule.Customer.ID
		}
	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(stripeEvent.Data.Raw, &sub); err != nil {
			return nil, wrap("decode event", err)
		}
		event.Kind = EventSubscriptionDeleted
		event.SubscriptionID = sub.ID
		if sub.Customer != nil {
			event.CustomerID = sub.Customer.ID
		}
	default:
		event.Kind = EventUnknown
	}

	return event, nil
}

func fromStripeSubscription(sub *stripe.Subscription) *Subscription {
	result := &Subscription{
		ID:                 sub.ID,
		Status:             string(sub.Status),
		CurrentPeriodStart: sub.CurrentPeriodStart,
		CurrentPeriodEnd:   sub.CurrentPeriodEnd,
		TrialEnd:           sub.TrialEnd,
		CancelAtPeriodEnd:  sub.CancelAtPeriodEnd,
	}
	if sub.LatestInvoice != nil {
		result.LatestInvoiceID = sub.LatestInvoice.ID
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Plan != nil {
		result.PlanAmount = sub.Items.Data[0].Plan.Amount
	}
	return result
}
