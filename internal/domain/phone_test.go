package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone_AcceptedForms(t *testing.T) {
	for _, raw := range []string{
		"89991234567",
		"79991234567",
		"9991234567",
		"+7 (999) 123-45-67",
		"8 999 123 45 67",
		"+7-999-123-45-67",
	} {
		assert.Equal(t, "+79991234567", NormalizePhone(raw), "raw=%q", raw)
	}
}

func TestNormalizePhone_Rejected(t *testing.T) {
	for _, raw := range []string{
		"",
		"12345",
		"999123456",     // 9 digits
		"99912345678",   // 11 digits not starting with 7/8
		"899912345678",  // 12 digits
		"абвгдеёжзик",
		"+1 999 123 45 67",
	} {
		assert.Empty(t, NormalizePhone(raw), "raw=%q", raw)
	}
}

func TestPhoneForAPI(t *testing.T) {
	assert.Equal(t, "9991234567", PhoneForAPI("+79991234567"))
	assert.Empty(t, PhoneForAPI("79991234567"))
	assert.Empty(t, PhoneForAPI("+7999123456"))
	assert.Empty(t, PhoneForAPI("+7999123456x"))
	assert.Empty(t, PhoneForAPI(""))
}

func TestPhoneHash(t *testing.T) {
	h := PhoneHash("+79991234567")
	require.Len(t, h, 64)
	assert.Equal(t, h, PhoneHash("+79991234567"))
	assert.NotEqual(t, h, PhoneHash("+79991234568"))
}
