package order

import "github.com/mukeshkumar44/e-commerce-backend/internal/models"

var transitions = map[models.OrderStatus][]models.OrderStatus{
	models.StatusPending:    {models.StatusProcessing, models.StatusCancelled},
	models.StatusProcessing: {models.StatusShipped, models.StatusCancelled},
	models.StatusShipped:    {models.StatusDelivered, models.StatusReturned},
	models.StatusDelivered:  {models.StatusReturned, models.StatusRefunded},
	models.StatusCancelled:  {models.StatusRefunded},
	models.StatusReturned:   {models.StatusRefunded},
	models.StatusRefunded:   nil,
}

// CanTransition reports whether an order may move from one status to another.
// Staying in the same status is always allowed.
func CanTransition(from, to models.OrderStatus) bool {
	if from == to {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Cancellable reports whether a customer may still cancel an order in status s.
func Cancellable(s models.OrderStatus) bool {
	return s == models.StatusPending || s == models.StatusProcessing
}
