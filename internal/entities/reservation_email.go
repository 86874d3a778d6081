package entities

type ReservationEmailData struct {
	SiteName          string
	ReservationCode   string
	UserName          string
	UserPhone         string
	UserEmail         string
	People            int
	DateTimeFormatted string
	Notes             string
	SiteAddress       string
	SiteMapsURL       string
}
