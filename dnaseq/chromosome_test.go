package dnaseq_test

import (
	"testing"

	"github.com/grailbio/testutil/assert"

	"github.com/grailbio/bio-synteny/dnaseq"
)

func TestDirectionOpposite(t *testing.T) {
	assert.EQ(t, dnaseq.Positive.Opposite(), dnaseq.Negative)
	assert.EQ(t, dnaseq.Negative.Opposite(), dnaseq.Positive)
	assert.EQ(t, dnaseq.Positive.String(), "+")
	assert.EQ(t, dnaseq.Negative.String(), "-")
}

func TestValidateAlphabetOnly(t *testing.T) {
	chrs := []dnaseq.Chromosome{{ID: 0, Sequence: []byte("ACGTN")}}
	assert.NoError(t, dnaseq.Validate(chrs, 0))

	bad := []dnaseq.Chromosome{{ID: 0, Sequence: []byte("ACGTX")}}
	assert.EQ(t, dnaseq.Validate(bad, 0) != nil, true)
}

func TestValidateRejectsNegativeK(t *testing.T) {
	chrs := []dnaseq.Chromosome{{ID: 0, Sequence: []byte("ACGT")}}
	assert.EQ(t, dnaseq.Validate(chrs, -1) != nil, true)
}

func TestValidateLengthCheck(t *testing.T) {
	chrs := []dnaseq.Chromosome{{ID: 0, Sequence: []byte("ACG")}}
	assert.NoError(t, dnaseq.Validate(chrs, 3))
	assert.EQ(t, dnaseq.Validate(chrs, 4) != nil, true)
}

func TestValidateEmptyInput(t *testing.T) {
	assert.NoError(t, dnaseq.Validate(nil, 5))
}

func TestCanonicalPicksLexSmaller(t *testing.T) {
	// "AAAT" reverse-complements to "ATTT"; "AAAT" < "ATTT" lexically.
	assert.EQ(t, dnaseq.Canonical([]byte("AAAT")), "AAAT")
	assert.EQ(t, dnaseq.Canonical([]byte("ATTT")), "AAAT")
}

func TestIsPalindrome(t *testing.T) {
	assert.EQ(t, dnaseq.IsPalindrome([]byte("ACGT")), true)
	assert.EQ(t, dnaseq.IsPalindrome([]byte("AAAA")), false)
}

func TestComplement(t *testing.T) {
	assert.EQ(t, dnaseq.Complement('A'), byte('T'))
	assert.EQ(t, dnaseq.Complement('G'), byte('C'))
}
