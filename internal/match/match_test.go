package match_test

import (
	"testing"

	"github.com/gestorcontas/contas-desk-go/internal/match"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Conta de Luz - CEMIG", "contadeluzcemig"},
		{"Água & Esgoto", "aguaesgoto"},
		{"  CARTÃO  ", "cartao"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := match.Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsFuzzyMatch(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"identical after normalization", "Conta de Luz CEMIG", "conta de luz cemig", true},
		{"accents and punctuation ignored", "Condomínio - Edifício Sol", "condominio edificio sol", true},
		{"subset of tokens matches", "Conta de Luz - CEMIG", "CEMIG Distribuição Conta de Luz Abril", true},
		{"partial token via substring", "Internet Vivo Fibra", "internet vivo", true},
		{"unrelated titles do not match", "Conta de Luz CEMIG", "Aluguel Apartamento 101", false},
		{"blank never matches", "", "Conta de Luz", false},
		{"both blank never match", "   ", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := match.IsFuzzyMatch(tt.a, tt.b); got != tt.want {
				t.Errorf("IsFuzzyMatch(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			// The match is symmetric by construction.
			if got := match.IsFuzzyMatch(tt.b, tt.a); got != tt.want {
				t.Errorf("IsFuzzyMatch(%q, %q) = %v, want %v (symmetry)", tt.b, tt.a, got, tt.want)
			}
		})
	}
}
