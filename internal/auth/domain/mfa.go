package domain

// MFASetup is returned when a user starts TOTP enrollment. QRCode is a PNG
// data URL suitable for direct embedding in an <img> tag.
type MFASetup struct {
	Secret     string
	OTPAuthURL string
	QRCode     string
}
