package processes

import (
	"strconv"

	"github.com/aretw0/flume/pkg/config"
	"github.com/aretw0/flume/pkg/domain"
	"github.com/aretw0/flume/pkg/process"
	"github.com/aretw0/flume/pkg/registry"
)

// multiplierCluster builds a cluster that multiplies its "factor" input by
// the configured constant:
//
//	const_number.number -> multiplication.factor1
//	factor              -> multiplication.factor2
//	product             <- multiplication.product
func multiplierCluster(r *registry.Registry) registry.Constructor {
	return func(name string, cfg *config.Config) (process.Process, error) {
		factor, err := strconv.ParseInt(cfg.ValueOr("factor", ""), 10, 64)
		if err != nil {
			return nil, err
		}

		constName, multName := name+"_const", name+"_multiplication"
		constant, err := r.Create(TypeConstNumber, constName,
			config.FromMap(map[string]string{"value": strconv.FormatInt(factor, 10)}))
		if err != nil {
			return nil, err
		}
		mult, err := r.Create(TypeMultiplication, multName, nil)
		if err != nil {
			return nil, err
		}

		c := process.NewCluster(name, TypeMultiplierCluster, cfg)
		for _, m := range []process.Process{constant, mult} {
			if err := c.AddMember(m); err != nil {
				return nil, err
			}
		}
		if err := c.MapInput("factor", domain.Address{Process: multName, Port: "factor2"}); err != nil {
			return nil, err
		}
		if err := c.MapOutput("product", domain.Address{Process: multName, Port: "product"}); err != nil {
			return nil, err
		}
		c.Connect(
			domain.Address{Process: constName, Port: "number"},
			domain.Address{Process: multName, Port: "factor1"},
		)
		return c, nil
	}
}
