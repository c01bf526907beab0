package odds

import (
	"github.com/shopspring/decimal"

	"github.com/radieske/wrestlebet-pool-engine/internal/pool-service/domain"
)

// Casas decimais exibidas/travadas nas odds
const Precision = 2

// Calculator converte pools em odds e percentuais de sentimento.
// Não guarda estado: as mesmas entradas sempre produzem a mesma saída.
type Calculator struct {
	DefaultOdds decimal.Decimal // usada quando o pool do lado é zero
	MinimumOdds decimal.Decimal // piso para odds calculadas
}

// NewCalculator valida os parâmetros e devolve um Calculator.
// Se minimum > default, o default é elevado ao mínimo para manter o piso.
func NewCalculator(defaultOdds, minimumOdds decimal.Decimal) Calculator {
	if defaultOdds.LessThan(minimumOdds) {
		defaultOdds = minimumOdds
	}
	return Calculator{DefaultOdds: defaultOdds, MinimumOdds: minimumOdds}
}

// Default retorna o calculator com 2.00 de odd padrão e 1.10 de piso
func Default() Calculator {
	return NewCalculator(decimal.RequireFromString("2.00"), decimal.RequireFromString("1.10"))
}

// Compute calcula odds e sentimento para poolA/poolB (centavos, >= 0).
// Pools negativos são tratados como zero.
func (c Calculator) Compute(poolA, poolB int64) domain.Odds {
	if poolA < 0 {
		poolA = 0
	}
	if poolB < 0 {
		poolB = 0
	}

	total := poolA + poolB
	if total == 0 {
		return domain.Odds{
			OddsA:      c.DefaultOdds,
			OddsB:      c.DefaultOdds,
			SentimentA: 50,
			SentimentB: 50,
		}
	}

	sentA := Sentiment(poolA, total)
	return domain.Odds{
		OddsA:      c.sideOdds(total, poolA),
		OddsB:      c.sideOdds(total, poolB),
		SentimentA: sentA,
		SentimentB: 100 - sentA,
	}
}

// sideOdds = max(MinimumOdds, total/pool), truncada em Precision casas
func (c Calculator) sideOdds(total, pool int64) decimal.Decimal {
	if pool == 0 {
		// lado sem apostas exibe DefaultOdds; qualquer centavo já usa total/pool, mesmo que passe disso
		return c.DefaultOdds
	}
	o := decimal.NewFromInt(total).Div(decimal.NewFromInt(pool)).Truncate(Precision)
	return decimal.Max(c.MinimumOdds, o)
}

// Sentiment devolve round(part/total*100) com arredondamento half-up em
// aritmética inteira. total deve ser > 0.
func Sentiment(part, total int64) int {
	return int((part*200 + total) / (2 * total))
}
