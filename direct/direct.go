// Package direct implements the in-process point-to-point endpoint channel:
// a single-consumer-last-wins rendezvous keyed by a sanitized endpoint name,
// with optional schema validation and a discovery registry readable from
// the context store. Patterned after an internal/plugin/registry.go
// name->factory map, rewritten around a message channel contract instead
// of a plugin factory contract.
package direct

import (
	"context"
	"regexp"
	"sync"

	"routecraft.dev/routecraft"
)

var sanitizeRe = regexp.MustCompile(`[^A-Za-z0-9]`)

// Sanitize maps any endpoint name to its registry key: every character
// outside [A-Za-z0-9] becomes '-'.
func Sanitize(endpoint string) string {
	return sanitizeRe.ReplaceAllString(endpoint, "-")
}

// Handler is the subscriber side of the channel contract: given a message,
// return the (possibly transformed) result.
type Handler func(ctx context.Context, msg *routecraft.Exchange) (*routecraft.Exchange, error)

type channel struct {
	mu      sync.Mutex
	handler Handler
}

// registry is the per-context channel map, stored under
// routecraft.StoreDirectChannels. Discovery metadata is kept separately
// under routecraft.StoreDirectRegistry (see discoveryFor), so other
// components can read it directly off the context store.
// routecraft.StoreDirectOptions is not written by this package.
type registry struct {
	mu       sync.Mutex
	channels map[string]*channel
}

// EndpointInfo is the discovery-registry entry written for every source
// subscription.
type EndpointInfo struct {
	Endpoint     string
	Description  string
	Schema       routecraft.StandardSchema
	HeaderSchema routecraft.StandardSchema
	Keywords     []string
}

func registryFor(ctx *routecraft.Context) *registry {
	if v, ok := ctx.GetStore(routecraft.StoreDirectChannels); ok {
		if r, ok := v.(*registry); ok {
			return r
		}
	}
	r := &registry{channels: make(map[string]*channel)}
	ctx.SetStore(routecraft.StoreDirectChannels, r)
	return r
}

func discoveryFor(ctx *routecraft.Context) map[string]EndpointInfo {
	if v, ok := ctx.GetStore(routecraft.StoreDirectRegistry); ok {
		if m, ok := v.(map[string]EndpointInfo); ok {
			return m
		}
	}
	m := make(map[string]EndpointInfo)
	ctx.SetStore(routecraft.StoreDirectRegistry, m)
	return m
}

func (r *registry) get(endpoint string) *channel {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch, ok := r.channels[endpoint]
	if !ok {
		ch = &channel{}
		r.channels[endpoint] = ch
	}
	return ch
}

// send delivers msg to the current subscriber, if any. With no subscriber
// the message passes through unchanged.
func (ch *channel) send(ctx context.Context, msg *routecraft.Exchange) (*routecraft.Exchange, error) {
	ch.mu.Lock()
	h := ch.handler
	ch.mu.Unlock()
	if h == nil {
		return msg, nil
	}
	return h(ctx, msg)
}

// subscribe replaces the current subscriber (single-consumer, last-wins).
func (ch *channel) subscribe(h Handler) {
	ch.mu.Lock()
	ch.handler = h
	ch.mu.Unlock()
}

func (ch *channel) unsubscribe() {
	ch.mu.Lock()
	ch.handler = nil
	ch.mu.Unlock()
}

// Options configure an endpoint. Both shapes use Endpoint; Description,
// Schema, HeaderSchema and Keywords are used only by Source (validation and
// the discovery registry) and are ignored by Destination.
type Options struct {
	Endpoint     string
	Description  string
	Schema       routecraft.StandardSchema
	HeaderSchema routecraft.StandardSchema
	Keywords     []string
}

// validate runs body/header schemas (if configured) ahead of the user
// handler: on issues, fail RC5011; a transformed value
// replaces the body/headers used downstream.
func validate(opts Options, ex *routecraft.Exchange) (*routecraft.Exchange, error) {
	if opts.Schema != nil {
		res, err := opts.Schema.Validate(ex.Body)
		if err != nil {
			return nil, routecraft.WrapError(routecraft.CodeDirectValidation, err)
		}
		if res.Failed() {
			return nil, routecraft.NewError(routecraft.CodeDirectValidation, "body schema issues: %v", res.Issues)
		}
		if res.Value != nil {
			ex.Body = res.Value
		}
	}
	if opts.HeaderSchema != nil {
		res, err := opts.HeaderSchema.Validate(ex.Headers)
		if err != nil {
			return nil, routecraft.WrapError(routecraft.CodeDirectValidation, err)
		}
		if res.Failed() {
			return nil, routecraft.NewError(routecraft.CodeDirectValidation, "header schema issues: %v", res.Issues)
		}
		if hm, ok := res.Value.(map[string]any); ok {
			ex.Headers = hm
		}
	}
	return ex, nil
}

// Source builds a `from(direct(endpoint, opts...))` capability: every
// message sent to endpoint is delivered to submit. A source cannot use a
// dynamically-valued endpoint — Sanitize is applied to a fixed string known
// at route-build time (never offered here: Go's type system already forces
// endpoint to be a string, so there's no DIRECT_SOURCE_DYNAMIC failure mode
// to reach).
func Source(ctx *routecraft.Context, opts Options) routecraft.Source {
	endpoint := Sanitize(opts.Endpoint)
	return routecraft.SourceFunc(func(sctx context.Context, submit routecraft.MessageHandler) error {
		reg := registryFor(ctx)
		ch := reg.get(endpoint)

		disc := discoveryFor(ctx)
		disc[endpoint] = EndpointInfo{
			Endpoint:     endpoint,
			Description:  opts.Description,
			Schema:       opts.Schema,
			HeaderSchema: opts.HeaderSchema,
			Keywords:     opts.Keywords,
		}

		ch.subscribe(func(hctx context.Context, msg *routecraft.Exchange) (*routecraft.Exchange, error) {
			msg, err := validate(opts, msg)
			if err != nil {
				return nil, err
			}
			return submit(hctx, msg.Body, msg.Headers)
		})

		<-sctx.Done()
		ch.unsubscribe()
		return sctx.Err()
	})
}

// Destination builds a `to`/`tap`/`enrich` capability that sends the
// exchange to endpoint's current subscriber and returns its result's body.
// It returns nil (void, leaving the body unchanged) if nobody is subscribed
// or the subscriber hands back the same exchange. Emits
// directSendStart/End around the call so metrics can gauge how many sends
// are currently pending against the endpoint.
func Destination(ctx *routecraft.Context, opts Options) routecraft.Destination {
	endpoint := Sanitize(opts.Endpoint)
	return routecraft.DestinationFunc(func(ex *routecraft.Exchange) (any, error) {
		reg := registryFor(ctx)
		ch := reg.get(endpoint)

		ctx.Emit(routecraft.EventDirectSendStart, map[string]any{"endpoint": endpoint})
		result, err := ch.send(context.Background(), ex)
		ctx.Emit(routecraft.EventDirectSendEnd, map[string]any{"endpoint": endpoint})
		if err != nil {
			return nil, err
		}
		if result == nil || result == ex {
			return nil, nil
		}
		return result.Body, nil
	})
}
