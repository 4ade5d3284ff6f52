package validator

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type booking struct {
	At    time.Time `json:"appointment_time" validate:"required,future"`
	Slots []string  `json:"availability" validate:"dive,ampm"`
	Email string    `json:"email" validate:"required,email"`
}

func TestStructCustomRules(t *testing.T) {
	ok := booking{At: time.Now().Add(time.Hour), Slots: []string{"09:00 AM", "02:00 PM"}, Email: "a@b.co"}
	assert.NoError(t, Struct(ok))

	bad := booking{At: time.Now().Add(-time.Hour), Slots: []string{"09:00"}, Email: "nope"}
	err := Struct(bad)
	require.Error(t, err)

	fields := map[string]string{}
	for _, fe := range Describe(err) {
		fields[fe.Field] = fe.Message
	}
	assert.Equal(t, "Time must be in the future", fields["appointment_time"])
	assert.Equal(t, "Slot label must end with AM or PM", fields["availability[0]"])
	assert.Equal(t, "Invalid email format", fields["email"])
}

func TestDescribeIgnoresOtherErrors(t *testing.T) {
	assert.Nil(t, Describe(errors.New("plain")))
}
