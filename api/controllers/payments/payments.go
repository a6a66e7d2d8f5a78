package payments

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/angelmondragon/payments-service/api/responses"
	"github.com/angelmondragon/payments-service/api/validators"
	paymentsvc "github.com/angelmondragon/payments-service/internal/payments"
	pkgerrors "github.com/angelmondragon/payments-service/pkg/errors"
	"github.com/angelmondragon/payments-service/pkg/logger"
)

const (
	healthMessage       = "Payment service is healthy"
	refundFailedPrefix  = "Refund failed: "
	processFailedPrefix = "Payment processing failed: "
)

// Process charges a payment. A declined charge is still a 200; only request
// or processing failures produce a 400.
func Process(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		var payload paymentsvc.PaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			writeMessage(r, logg, w, http.StatusBadRequest, err, errorMessage(err))
			return
		}
		payload.PaymentMethod = validators.SanitizeString(payload.PaymentMethod, 0)

		resp, err := svc.ProcessPayment(r.Context(), payload)
		if err != nil {
			msg := errorMessage(err)
			if !strings.HasPrefix(msg, processFailedPrefix) {
				msg = processFailedPrefix + msg
			}
			writeMessage(r, logg, w, http.StatusBadRequest, err, msg)
			return
		}
		responses.WriteJSON(w, http.StatusOK, resp)
	}
}

// ListByUser returns every payment for a user, newest first.
func ListByUser(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}
		userID, err := validators.PathInt64(r, "userId")
		if err != nil {
			writeMessage(r, logg, w, http.StatusBadRequest, err, errorMessage(err))
			return
		}

		list, err := svc.GetPaymentsByUserID(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteJSON(w, http.StatusOK, list)
	}
}

// GetByOrder returns the most recent payment for an order.
func GetByOrder(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}
		orderID, err := validators.PathInt64(r, "orderId")
		if err != nil {
			writeMessage(r, logg, w, http.StatusBadRequest, err, errorMessage(err))
			return
		}

		resp, err := svc.GetPaymentByOrderID(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if resp == nil {
			responses.WriteJSON(w, http.StatusNotFound, paymentsvc.MessageResponse(fmt.Sprintf("Payment not found for order: %d", orderID)))
			return
		}
		responses.WriteJSON(w, http.StatusOK, resp)
	}
}

// GetByID returns a single payment.
func GetByID(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}
		paymentID, err := validators.PathInt64(r, "paymentId")
		if err != nil {
			writeMessage(r, logg, w, http.StatusBadRequest, err, errorMessage(err))
			return
		}

		resp, err := svc.GetPaymentByID(r.Context(), paymentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if resp == nil {
			responses.WriteJSON(w, http.StatusNotFound, paymentsvc.MessageResponse(fmt.Sprintf("Payment not found: %d", paymentID)))
			return
		}
		responses.WriteJSON(w, http.StatusOK, resp)
	}
}

// Refund moves a completed payment to REFUNDED. Every failure, including an
// unknown id, is reported as a 400 with a "Refund failed: " message.
func Refund(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}
		paymentID, err := validators.PathInt64(r, "paymentId")
		if err != nil {
			writeMessage(r, logg, w, http.StatusBadRequest, err, errorMessage(err))
			return
		}

		resp, err := svc.RefundPayment(r.Context(), paymentID)
		if err != nil {
			writeMessage(r, logg, w, http.StatusBadRequest, err, refundFailedPrefix+errorMessage(err))
			return
		}
		responses.WriteJSON(w, http.StatusOK, resp)
	}
}

// Health is the plain-text liveness probe kept under the payments prefix.
func Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteText(w, http.StatusOK, healthMessage)
	}
}

func writeMessage(r *http.Request, logg *logger.Logger, w http.ResponseWriter, status int, err error, msg string) {
	responses.LogError(r.Context(), logg, err)
	responses.WriteJSON(w, status, paymentsvc.MessageResponse(msg))
}

// errorMessage prefers the typed public message over the wrapped chain.
func errorMessage(err error) string {
	if typed := pkgerrors.As(err); typed != nil && typed.Message() != "" {
		return typed.Message()
	}
	return err.Error()
}
