package orders

import (
	"errors"
	"net/http"

	"tavolo_server/handling"
	"tavolo_server/lib"

	"github.com/MonkyMars/gecho"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (orm *OrderRoutesManager) ListOrders(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := uuid.Parse(r.URL.Query().Get("restaurant_id"))
	if err != nil {
		gecho.BadRequest(w,
			gecho.WithMessage("error.order.restaurantIdRequired"),
			gecho.Send(),
		)
		return
	}

	status, err := handling.ParseOrderStatus(r)
	if err != nil {
		gecho.BadRequest(w,
			gecho.WithMessage(err.Error()),
			gecho.Send(),
		)
		return
	}

	pagination, err := handling.ParsePagination(r)
	if err != nil {
		gecho.BadRequest(w,
			gecho.WithMessage(err.Error()),
			gecho.Send(),
		)
		return
	}

	orders, total, err := orm.orderService.ListOrders(r.Context(), restaurantID, status, pagination.Page, pagination.PageSize)
	if err != nil {
		handling.HandleError(err, "Failed to list orders", orm.logger, w)
		return
	}

	gecho.Success(w,
		gecho.WithData(map[string]any{
			"orders":    orders,
			"total":     total,
			"page":      pagination.Page,
			"page_size": pagination.PageSize,
		}),
		gecho.Send(),
	)
}

func (orm *OrderRoutesManager) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		gecho.BadRequest(w,
			gecho.WithMessage("error.order.invalidId"),
			gecho.Send(),
		)
		return
	}

	order, err := orm.orderService.GetOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, lib.ErrNotFound) {
			gecho.NotFound(w,
				gecho.WithMessage("error.order.notFound"),
				gecho.Send(),
			)
			return
		}
		handling.HandleError(err, "Failed to load order", orm.logger, w)
		return
	}

	gecho.Success(w,
		gecho.WithData(order),
		gecho.Send(),
	)
}
