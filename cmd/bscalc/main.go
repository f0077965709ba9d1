// bscalc 命令行计算 Black-Scholes 价格、希腊字母与行权概率
package main

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/spf13/pflag"
	"github.com/wyfcoding/optionanalytics/internal/pricing/domain"
	"github.com/wyfcoding/optionanalytics/internal/pricing/infrastructure/history"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	params     domain.OptionParameters
	optionType string
	csvPath    string
	column     string
	days       int
	greeks     bool
	parity     bool
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("bscalc", pflag.ContinueOnError)
	fs.SetOutput(stderr)

	var opts options
	fs.Float64VarP(&opts.params.S, "spot", "s", 100, "underlying spot price")
	fs.Float64VarP(&opts.params.X, "strike", "k", 100, "strike price")
	fs.Float64VarP(&opts.params.T, "maturity", "t", 1, "time to maturity in years")
	fs.Float64VarP(&opts.params.R, "rate", "r", 0.05, "continuously compounded risk-free rate")
	fs.Float64Var(&opts.params.Sigma, "sigma", 0.2, "annualized volatility, ignored when --csv is set")
	fs.StringVar(&opts.optionType, "type", "call", "option type: call or put")
	fs.StringVar(&opts.csvPath, "csv", "", "estimate sigma from a price history csv")
	fs.StringVar(&opts.column, "column", history.DefaultColumn, "price column in the csv")
	fs.IntVar(&opts.days, "trading-days", domain.TradingDaysPerYear, "trading days per year for annualization")
	fs.BoolVarP(&opts.greeks, "greeks", "g", false, "print greeks and exercise probability")
	fs.BoolVar(&opts.parity, "parity", false, "print the put-call parity check")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	if err := calculate(opts, stdout); err != nil {
		fmt.Fprintf(stderr, "bscalc: %v\n", err)
		return 1
	}
	return 0
}

func calculate(opts options, w io.Writer) error {
	optionType, err := domain.ParseOptionType(opts.optionType)
	if err != nil {
		return err
	}

	p := opts.params
	if opts.csvPath != "" {
		prices, err := history.ReadPriceFile(opts.csvPath, opts.column)
		if err != nil {
			return err
		}
		if p.Sigma, err = domain.EstimateAnnualizedVolatilityWithDays(prices, opts.days); err != nil {
			return err
		}
		fmt.Fprintf(w, "sigma:       %s\n", format(p.Sigma))
	}

	quote, err := domain.NewQuote(p, optionType)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%-12s %s\n", quote.Type.String()+":", format(quote.Price))

	if opts.greeks {
		g := quote.Greeks
		fmt.Fprintf(w, "delta:       %s\n", format(g.Delta))
		fmt.Fprintf(w, "gamma:       %s\n", format(g.Gamma))
		fmt.Fprintf(w, "theta:       %s\n", format(g.Theta))
		fmt.Fprintf(w, "vega:        %s\n", format(g.Vega))
		fmt.Fprintf(w, "rho:         %s\n", format(g.Rho))
		fmt.Fprintf(w, "probability: %s\n", format(quote.ExerciseProbability))
	}

	if opts.parity {
		call, err := domain.Price(p, domain.OptionTypeCall)
		if err != nil {
			return err
		}
		put, err := domain.Price(p, domain.OptionTypePut)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "C - P:       %s\n", format(call-put))
		fmt.Fprintf(w, "S - Xe^-rT:  %s\n", format(p.S-p.X*math.Exp(-p.R*p.T)))
	}
	return nil
}

// format 保留 6 位小数，按二进制精确值舍入
func format(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
