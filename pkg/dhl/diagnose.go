package dhl

import (
	"errors"
	"strings"

	"github.com/tournevent/dhlbridge/pkg/dhl/rest"
	"github.com/tournevent/dhlbridge/pkg/dhl/soap"
	"github.com/tournevent/dhlbridge/pkg/dhl/transport"
)

// validationError turns a failed validation into the structured error
// every operation returns. The field list is machine-readable; the
// message collects everything a human needs.
func validationError(v *ValidationResult) *ErrorRecord {
	return NewError(KindValidation, strings.Join(v.Errors, "; ")).
		WithFields(v.Errors)
}

// MapError normalizes transport, SOAP and REST failures into a single
// *ErrorRecord. An error that is already an *ErrorRecord passes
// through untouched.
func MapError(err error) *ErrorRecord {
	var rec *ErrorRecord
	if errors.As(err, &rec) {
		return rec
	}

	var failure *transport.Failure
	if errors.As(err, &failure) {
		return mapFailure(failure)
	}

	var fault *soap.FaultError
	if errors.As(err, &fault) {
		out := NewError(KindUpstreamFault, fault.Message).WithMachineCode(fault.Code)
		if fault.Suggestion != "" {
			out = out.WithSuggestion(fault.Suggestion)
		}
		return out.WithCause(err)
	}

	var notFound *soap.NotFoundError
	if errors.As(err, &notFound) {
		return NewError(KindNotFound, notFound.Message).WithCause(err)
	}

	var soapParse *soap.ParseError
	if errors.As(err, &soapParse) {
		return NewError(KindParse, soapParse.Reason).
			WithRawPreview(soapParse.Raw).
			WithCause(err)
	}

	var apiErr *rest.APIError
	if errors.As(err, &apiErr) {
		kind := KindUpstreamFault
		switch {
		case apiErr.Status == 401 || apiErr.Status == 403:
			kind = KindAuth
		case apiErr.Status == 404:
			kind = KindNotFound
		case apiErr.Status == 429:
			kind = KindRateLimit
		case apiErr.Status >= 500:
			kind = KindServer
		}
		return NewError(kind, strings.TrimSpace(apiErr.Title+" "+apiErr.Detail)).
			WithUpstreamStatus(apiErr.Status).
			WithCause(err)
	}

	var restParse *rest.ParseError
	if errors.As(err, &restParse) {
		return NewError(KindParse, restParse.Reason).
			WithRawPreview(restParse.Raw).
			WithCause(err)
	}

	return NewError(KindUnknown, err.Error()).WithCause(err)
}

func mapFailure(f *transport.Failure) *ErrorRecord {
	var kind ErrorKind
	switch f.Class {
	case transport.ClassTimeout:
		kind = KindTimeout
	case transport.ClassConnection:
		kind = KindConnection
	case transport.ClassAuth:
		kind = KindAuth
	case transport.ClassNotFound:
		kind = KindNotFound
	case transport.ClassRateLimit:
		kind = KindRateLimit
	case transport.ClassServer:
		kind = KindServer
	default:
		kind = KindUpstreamFault
	}

	rec := NewError(kind, f.Message).
		WithUpstreamStatus(f.StatusCode).
		WithRetries(f.Retries).
		WithCause(f)
	if len(f.Body) > 0 {
		rec = rec.WithRawPreview(f.Body)
	}
	if kind == KindAuth && f.SubReason == "forbidden" {
		rec = rec.WithSuggestion("The credentials are valid but lack permission for this operation or route")
	}
	return rec
}
