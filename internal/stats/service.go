package stats

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/dungdata/dungdata-backend/pkg/enums"
	pkgerrors "github.com/dungdata/dungdata-backend/pkg/errors"
)

// Dashboard aggregates the counters shown on the admin landing page.
type Dashboard struct {
	Users           int64                       `json:"users"`
	Posts           int64                       `json:"posts"`
	PublishedPosts  int64                       `json:"published_posts"`
	TotalViews      int64                       `json:"total_views"`
	ViewsByCategory map[string]int64            `json:"views_by_category"`
	Orders          map[enums.OrderStatus]int64 `json:"orders"`
	Revenue         decimal.Decimal             `json:"revenue"`
	UnreadMessages  int64                       `json:"unread_messages"`
}

type userCounter interface {
	Count(ctx context.Context) (int64, error)
}

type postCounter interface {
	Count(ctx context.Context, publishedOnly bool) (int64, error)
	TotalViews(ctx context.Context) (int64, error)
	ViewsByCategory(ctx context.Context) (map[string]int64, error)
}

type orderCounter interface {
	CountByStatus(ctx context.Context) (map[enums.OrderStatus]int64, error)
	ConfirmedRevenue(ctx context.Context) (decimal.Decimal, error)
}

type messageCounter interface {
	CountUnread(ctx context.Context) (int64, error)
}

// Service builds the admin dashboard snapshot.
type Service interface {
	Dashboard(ctx context.Context) (*Dashboard, error)
}

// ServiceParams wires the stats service dependencies.
type ServiceParams struct {
	Users    userCounter
	Posts    postCounter
	Orders   orderCounter
	Messages messageCounter
}

type service struct {
	users    userCounter
	posts    postCounter
	orders   orderCounter
	messages messageCounter
}

// NewService constructs a stats service from its dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Users == nil || params.Posts == nil || params.Orders == nil || params.Messages == nil {
		return nil, fmt.Errorf("all stats dependencies are required")
	}
	return &service{
		users:    params.Users,
		posts:    params.Posts,
		orders:   params.Orders,
		messages: params.Messages,
	}, nil
}

// Dashboard gathers every counter so a single slow query does not hide
// which ones failed.
func (s *service) Dashboard(ctx context.Context) (*Dashboard, error) {
	dash := &Dashboard{}
	var errs []error

	collect := func(label string, fn func() error) {
		if err := fn(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", label, err))
		}
	}

	collect("count users", func() (err error) {
		dash.Users, err = s.users.Count(ctx)
		return
	})
	collect("count posts", func() (err error) {
		dash.Posts, err = s.posts.Count(ctx, false)
		return
	})
	collect("count published posts", func() (err error) {
		dash.PublishedPosts, err = s.posts.Count(ctx, true)
		return
	})
	collect("sum views", func() (err error) {
		dash.TotalViews, err = s.posts.TotalViews(ctx)
		return
	})
	collect("sum views per category", func() (err error) {
		dash.ViewsByCategory, err = s.posts.ViewsByCategory(ctx)
		return
	})
	collect("count orders", func() (err error) {
		dash.Orders, err = s.orders.CountByStatus(ctx)
		return
	})
	collect("sum revenue", func() (err error) {
		dash.Revenue, err = s.orders.ConfirmedRevenue(ctx)
		return
	})
	collect("count unread messages", func() (err error) {
		dash.UnreadMessages, err = s.messages.CountUnread(ctx)
		return
	})

	if combined := multierr.Combine(errs...); combined != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, combined, "build dashboard")
	}
	if dash.Orders == nil {
		dash.Orders = map[enums.OrderStatus]int64{}
	}
	if dash.ViewsByCategory == nil {
		dash.ViewsByCategory = map[string]int64{}
	}
	return dash, nil
}
