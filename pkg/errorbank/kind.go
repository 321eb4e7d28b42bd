package errorbank

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

// Kind classifies an application error independently of the transport.
type Kind string

const (
	KindBadRequest          Kind = "bad_request"
	KindConflict            Kind = "conflict"
	KindNotFound            Kind = "not_found"
	KindUnprocessableEntity Kind = "unprocessable_entity"
	KindUnavailable         Kind = "unavailable"
	KindInternal            Kind = "internal"
)

type transportCodes struct {
	http int
	grpc codes.Code
}

var kindCodes = map[Kind]transportCodes{
	KindBadRequest:          {http.StatusBadRequest, codes.InvalidArgument},
	KindConflict:            {http.StatusConflict, codes.AlreadyExists},
	KindNotFound:            {http.StatusNotFound, codes.NotFound},
	KindUnprocessableEntity: {http.StatusUnprocessableEntity, codes.FailedPrecondition},
	KindUnavailable:         {http.StatusServiceUnavailable, codes.Unavailable},
	KindInternal:            {http.StatusInternalServerError, codes.Internal},
}

func (k Kind) codes() transportCodes {
	if c, ok := kindCodes[k]; ok {
		return c
	}
	return kindCodes[KindInternal]
}
