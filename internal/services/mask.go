package services

// MaskedPlaceholder is shown instead of credentials too short to mask safely.
const MaskedPlaceholder = "****"

// MaskCredential keeps the first 8 and last 4 characters of a credential and
// elides the middle. Credentials of 12 characters or fewer would be mostly or
// fully revealed, so they collapse to MaskedPlaceholder.
func MaskCredential(credential string) string {
	if len(credential) <= 12 {
		return MaskedPlaceholder
	}
	return credential[:8] + "..." + credential[len(credential)-4:]
}
