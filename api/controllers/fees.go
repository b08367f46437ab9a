package controllers

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/stagepass/stagepass-backend/api/responses"
	"github.com/stagepass/stagepass-backend/internal/fees"
	"github.com/stagepass/stagepass-backend/pkg/enums"
	pkgerrors "github.com/stagepass/stagepass-backend/pkg/errors"
	"github.com/stagepass/stagepass-backend/pkg/logger"
)

// FeesBreakdown quotes the fee split for an amount and payment rail without
// touching any ledger state.
func FeesBreakdown(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rawAmount := strings.TrimSpace(r.URL.Query().Get("amount"))
		if rawAmount == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "amount query parameter required"))
			return
		}
		amount, err := decimal.NewFromString(rawAmount)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid amount"))
			return
		}

		rail, err := enums.ParsePaymentRail(strings.TrimSpace(r.URL.Query().Get("rail")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment rail"))
			return
		}

		breakdown, err := fees.Calculate(amount, rail)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, breakdown)
	}
}
