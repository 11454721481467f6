// Package auth provides authorization collaborators of the sender.Sender.
//
// BearerToken is a pre-request hook, it sets the Authorization header from an oauth2.TokenSource.
// RefreshOnUnauthorized is a reject handler, it refreshes credentials as the blocking request and replays the call.
package auth

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"

	"github.com/keboola/go-request-sender/pkg/client"
	"github.com/keboola/go-request-sender/pkg/merge"
	"github.com/keboola/go-request-sender/pkg/request"
	"github.com/keboola/go-request-sender/pkg/sender"
)

const AuthorizationHeader = "Authorization"

type replayCtxKey struct{}

// BearerToken creates a pre-request hook which sets the "requestConfig.headers.Authorization" option.
// Other request config headers are kept. The token is read on each call.
func BearerToken(ts oauth2.TokenSource) request.PreRequestHook {
	if ts == nil {
		panic(fmt.Errorf("token source cannot be nil"))
	}
	return func(ctx context.Context, info request.Info) (request.Info, error) {
		token, err := ts.Token()
		if err != nil {
			return info, fmt.Errorf("cannot get token: %w", err)
		}
		info.Options = info.Options.AndRequestConfig("headers", merge.Record{
			AuthorizationHeader: token.Type() + " " + token.AccessToken,
		})
		return info, nil
	}
}

// RefreshOnUnauthorized creates a reject handler which refreshes credentials and replays the failed call once.
//
// The refresh is set as the blocking request, if no blocking request is set,
// so other calls wait until the credentials are refreshed.
// Requests sent by the refresh function must set the avoidBlockingRequest option.
//
// If the unauthorized function is nil, client.IsUnauthorized is used.
func RefreshOnUnauthorized[R any](refresh func(ctx context.Context) error, unauthorized func(err error) bool) sender.RejectHandler[R] {
	if refresh == nil {
		panic(fmt.Errorf("refresh function cannot be nil"))
	}
	if unauthorized == nil {
		unauthorized = client.IsUnauthorized
	}
	return func(ctx context.Context, err error, call request.Call, s *sender.Sender[R]) (any, error) {
		if !unauthorized(err) || ctx.Value(replayCtxKey{}) != nil {
			return nil, err
		}

		// Refresh credentials, other calls wait for the blocking request
		refreshCtx := context.WithoutCancel(ctx)
		blocking := s.SetBlockingRequestIfNotSet(func() *sender.Pending {
			return sender.Go(func() (any, error) {
				return nil, refresh(refreshCtx)
			})
		})
		if _, refreshErr := blocking.Wait(ctx); refreshErr != nil {
			return nil, fmt.Errorf("cannot refresh credentials: %w", refreshErr)
		}

		// Replay the original call
		ctx = context.WithValue(ctx, replayCtxKey{}, true)
		return s.Send(ctx, call.Method, call.BaseURL, call.Data, call.Options)
	}
}
