package codec

// Card encodes a standard 52-card deck as a single byte 0..51: rank = index%13+1
// (Ace=1 .. King=13), suit = index/13 (0=Spades,1=Hearts,2=Diamonds,3=Clubs).
// Matches original_source's cards module exactly so card arithmetic in the
// game kernels and in logs/state blobs is observationally identical.

const NumCards = 52

func IsValidCard(card uint8) bool {
	return card < NumCards
}

// CardRankOneBased returns 1 (Ace) through 13 (King).
func CardRankOneBased(card uint8) uint8 {
	return card%13 + 1
}

// CardSuit returns 0=Spades, 1=Hearts, 2=Diamonds, 3=Clubs.
func CardSuit(card uint8) uint8 {
	return card / 13
}
