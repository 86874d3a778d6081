package entities

// ReservationRequest is the raw client input. Fields are left untyped so the
// service can report which field is wrong instead of failing the whole decode.
type ReservationRequest struct {
	Name   any `json:"name"`
	Phone  any `json:"phone"`
	Email  any `json:"email"`
	People any `json:"people"`
	Date   any `json:"date"`
	Time   any `json:"time"`
	Notes  any `json:"notes"`
}

type Confirmation struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
