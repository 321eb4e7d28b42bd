package order_test

import (
	"strconv"

	"github.com/Additional-Code/serviceorders/internal/dto"
)

func orderInput(ref, company, description, status string) dto.OrderInput {
	return dto.OrderInput{Reference: ref, Company: company, Description: description, Status: status}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
