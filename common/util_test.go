package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Relatório Diário de Vendas": "relatorio_diario_de_vendas",
		"  Clientes -- Ativos  ":     "clientes_ativos",
		"Ordem de Serviço (OS)":      "ordem_de_servico_os",
		"already_snake":              "already_snake",
		"ÇÃÕ 2024":                   "cao_2024",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestValidIdentifier(t *testing.T) {
	for _, ok := range []string{"orders", "HR.EMPLOYEES", "seq_order_id", "TBL$LOG", "_tmp#1"} {
		assert.True(t, ValidIdentifier(ok), ok)
	}
	for _, bad := range []string{"", "1abc", "orders; DROP TABLE x", "a.b.c", "name'--", "a b"} {
		assert.False(t, ValidIdentifier(bad), bad)
	}
	assert.NoError(t, EnsureIdentifiers("a", "b"))
	err := EnsureIdentifiers("a", "b c")
	assert.True(t, IsKind(err, KindValidation))
}

func TestArrayDistinct(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, ArrayDistinct([]string{"a", "b", "a", "c", "b"}))
	assert.True(t, ArraySearchFold("ORA_PROD", []string{"mysql_dev", "ora_prod"}))
	assert.False(t, ArraySearchFold("x", nil))
}

func TestPassword(t *testing.T) {
	assert.Error(t, VerifyPassword("short"))
	assert.Error(t, VerifyPassword("alllowercase"))
	assert.NoError(t, VerifyPassword("Dbroute@2024"))

	hash, err := HashPassword("Dbroute@2024")
	assert.NoError(t, err)
	assert.True(t, ComparePassword(hash, "Dbroute@2024"))
	assert.False(t, ComparePassword(hash, "wrong"))
}

func TestErrorKinds(t *testing.T) {
	err := NewConnectivityError(assert.AnError, "open %s", "ora_prod")
	assert.Equal(t, KindConnectivity, KindOf(err))
	assert.Contains(t, err.Error(), "ConnectivityError: open ora_prod")
	assert.Contains(t, err.Error(), assert.AnError.Error())
	assert.ErrorIs(t, err, assert.AnError)

	assert.Equal(t, KindUnknown, KindOf(assert.AnError))
	assert.False(t, IsKind(nil, KindUnknown))
	assert.Equal(t, "UnsupportedKindError", NewUnsupportedKindError("kind %q", "db2").(*Error).Kind.String())
}
