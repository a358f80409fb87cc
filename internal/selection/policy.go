package selection

import (
	"seatstudio/internal/seating"
)

// evaluateReservation is the fail-closed reservation policy: anything short
// of a 2xx answer that explicitly says success for exactly the requested
// seats is a failure.
func evaluateReservation(requested []string, outcome *seating.ReserveOutcome, err error) *ReservationFailure {
	if err != nil {
		return &ReservationFailure{Reason: ReasonTransport, Cause: err}
	}
	if outcome == nil {
		return &ReservationFailure{Reason: ReasonMalformedResponse}
	}

	failure := &ReservationFailure{StatusCode: outcome.StatusCode}
	if outcome.Body != nil {
		failure.Message = outcome.Body.Message
		failure.Conflicts = outcome.Body.Conflicts
	}

	switch {
	case outcome.StatusCode < 200 || outcome.StatusCode > 299:
		failure.Reason = ReasonUnexpectedStatus
		if len(failure.Conflicts) > 0 || outcome.StatusCode == 409 {
			failure.Reason = ReasonRejected
		}
		return failure
	case outcome.DecodeErr != nil || outcome.Body == nil:
		failure.Reason = ReasonMalformedResponse
		failure.Cause = outcome.DecodeErr
		return failure
	case outcome.Body.Success == nil:
		failure.Reason = ReasonNotConfirmed
		return failure
	case !*outcome.Body.Success:
		failure.Reason = ReasonRejected
		return failure
	}

	// an empty seat list confirms the request as sent
	if held := outcome.Body.SeatNumbers; len(held) > 0 {
		if missing, exact := compareSeats(requested, held); !exact {
			failure.Reason = ReasonNotConfirmed
			failure.Conflicts = missing
			failure.Message = "seating service held a different set of seats"
			return failure
		}
	}
	return nil
}

// compareSeats returns the requested seats absent from held, and whether the
// two sets are equal.
func compareSeats(requested, held []string) ([]string, bool) {
	heldSet := make(map[string]struct{}, len(held))
	for _, seatNumber := range held {
		heldSet[seatNumber] = struct{}{}
	}

	var missing []string
	requestedSet := make(map[string]struct{}, len(requested))
	for _, seatNumber := range requested {
		requestedSet[seatNumber] = struct{}{}
		if _, ok := heldSet[seatNumber]; !ok {
			missing = append(missing, seatNumber)
		}
	}
	return missing, len(missing) == 0 && len(heldSet) == len(requestedSet)
}
