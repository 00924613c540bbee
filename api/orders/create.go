package orders

import (
	"errors"
	"net/http"

	"tavolo_server/lib"
	"tavolo_server/structs"

	"github.com/MonkyMars/gecho"
)

func (orm *OrderRoutesManager) CreateOrder(w http.ResponseWriter, r *http.Request) {
	body, err := lib.ExtractAndValidateBody[structs.OrderRequest](r)
	if err != nil {
		gecho.BadRequest(w,
			gecho.WithMessage("error.order.invalidRequestBody"),
			gecho.Send(),
		)
		return
	}

	order, err := orm.orderService.CreateOrder(r.Context(), body)
	if err != nil {
		// Validation failures come back as plain errors from the service;
		// a conflict means the generated order number collided.
		if errors.Is(err, lib.ErrConflict) {
			gecho.BadRequest(w,
				gecho.WithMessage("error.order.duplicate"),
				gecho.Send(),
			)
			return
		}

		gecho.BadRequest(w,
			gecho.WithMessage("error.order.creationFailed"),
			gecho.WithData(map[string]string{"error": err.Error()}),
			gecho.Send(),
		)
		return
	}

	gecho.Success(w,
		gecho.WithMessage("success.order.created"),
		gecho.WithData(map[string]any{
			"order_id":     order.Id,
			"order_number": order.OrderNumber,
			"status":       order.Status,
			"total":        order.Total,
		}),
		gecho.Send(),
	)
}
