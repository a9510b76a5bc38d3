package usecase_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"invoice-reconciliation/internal/usecase"
)

func TestVendorMatcher_Resolve(t *testing.T) {
	ledger := []string{"株式会社丸紅", "新明電材", "丸紅", "ﾔﾏﾄ電機", "東洋ﾍﾞｰｽ"}

	tests := []struct {
		name      string
		canonical bool
		invoice   string
		want      string
		wantOK    bool
	}{
		{name: "exact wins over earlier containment", invoice: "丸紅", want: "丸紅", wantOK: true},
		{name: "ledger name contained in invoice name", invoice: "新明電材株式会社", want: "新明電材", wantOK: true},
		{name: "invoice name contained in ledger name", invoice: "ﾔﾏﾄ", want: "ﾔﾏﾄ電機", wantOK: true},
		{name: "first containment hit in order", invoice: "丸紅商事", want: "丸紅", wantOK: true},
		{name: "shared prefix resolves to first in order", invoice: "株式会社", want: "株式会社丸紅", wantOK: true},
		{name: "no relation", invoice: "ｲｸﾞｱｽ商事", wantOK: false},
		{name: "width differences need canonical mode", invoice: "ヤマト電機", wantOK: false},
		{name: "canonical mode folds width", canonical: true, invoice: "ヤマト電機", want: "ﾔﾏﾄ電機", wantOK: true},
		{name: "canonical mode containment", canonical: true, invoice: "東洋ベース工業", want: "東洋ﾍﾞｰｽ", wantOK: true},
		{name: "empty invoice vendor never contains-matches", invoice: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := usecase.NewVendorMatcher(ledger, tt.canonical)
			got, ok := m.Resolve(tt.invoice)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVendorMatcher_Deterministic(t *testing.T) {
	ledger := []string{"A電機", "B電機", "電機"}
	m := usecase.NewVendorMatcher(ledger, false)

	first, _ := m.Resolve("電機")
	for i := 0; i < 50; i++ {
		got, ok := m.Resolve("電機")
		assert.True(t, ok)
		assert.Equal(t, first, got)
	}
	assert.Equal(t, "電機", first)

	got, _ := m.Resolve("機")
	assert.Equal(t, "A電機", got, "first in the given order")
}

func TestVendorMatcher_Related(t *testing.T) {
	m := usecase.NewVendorMatcher(nil, false)

	assert.True(t, m.Related("丸紅", "丸紅"))
	assert.True(t, m.Related("丸紅", "株式会社丸紅"))
	assert.True(t, m.Related("丸紅商事", "丸紅"))
	assert.False(t, m.Related("丸紅", "鶴田電機"))
	assert.False(t, m.Related("", "丸紅"))

	c := usecase.NewVendorMatcher(nil, true)
	assert.True(t, c.Related("ﾂﾙﾀ", "ツルタ電機"))
}
