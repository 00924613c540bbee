package orders

import (
	"errors"
	"net/http"

	"tavolo_server/handling"
	"tavolo_server/lib"
	"tavolo_server/structs"

	"github.com/MonkyMars/gecho"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (orm *OrderRoutesManager) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		gecho.BadRequest(w,
			gecho.WithMessage("error.order.invalidId"),
			gecho.Send(),
		)
		return
	}

	body, err := lib.ExtractAndValidateBody[structs.OrderStatusRequest](r)
	if err != nil {
		gecho.BadRequest(w,
			gecho.WithMessage("error.order.invalidRequestBody"),
			gecho.Send(),
		)
		return
	}

	order, err := orm.orderService.UpdateStatus(r.Context(), orderID, body.Status)
	if err != nil {
		switch {
		case errors.Is(err, lib.ErrNotFound):
			gecho.NotFound(w,
				gecho.WithMessage("error.order.notFound"),
				gecho.Send(),
			)
		case errors.Is(err, lib.ErrInvalidStatusChange):
			gecho.BadRequest(w,
				gecho.WithMessage("error.order.invalidStatusChange"),
				gecho.WithData(map[string]string{"error": err.Error()}),
				gecho.Send(),
			)
		default:
			handling.HandleError(err, "Failed to update order status", orm.logger, w)
		}
		return
	}

	gecho.Success(w,
		gecho.WithMessage("success.order.statusUpdated"),
		gecho.WithData(map[string]any{
			"order_id":     order.Id,
			"status":       order.Status,
			"completed_at": order.CompletedAt,
		}),
		gecho.Send(),
	)
}
