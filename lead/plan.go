package lead

// Plan is one entry of the pricing table.
type Plan struct {
	Name        string
	Price       string
	Period      string
	Description string
	Features    []string
	Popular     bool
}

var catalog = []Plan{
	{
		Name:        "Starter",
		Price:       "R$ 29,97",
		Period:      "/mês",
		Description: "Ideal para começar - teste gratuito por 3 dias",
		Features: []string{
			"Até 5 usuários",
			"Dashboard básico",
			"Sistema de pontos",
			"Relatórios básicos",
			"Suporte por email",
		},
	},
	{
		Name:        "Professional",
		Price:       "R$ 49,98",
		Period:      "/mês",
		Description: "Para pequenas empresas em crescimento",
		Features: []string{
			"Até 30 usuários",
			"Dashboard avançado",
			"Gamificação completa",
			"Gestão de equipes",
			"Integrações básicas",
			"Suporte prioritário",
		},
	},
	{
		Name:        "Explorer",
		Price:       "R$ 79,97",
		Period:      "/mês",
		Description: "Recursos avançados para empresas em expansão",
		Features: []string{
			"Até 50 usuários",
			"Relatórios em tempo real",
			"API para integrações",
			"Análise de produtividade",
			"Automações avançadas",
			"Suporte prioritário 24/7",
		},
		Popular: true,
	},
	{
		Name:        "Enterprise",
		Price:       "Personalizado",
		Description: "Solução sob medida para grandes organizações",
		Features: []string{
			"Usuários ilimitados",
			"Tudo do Explorer",
			"Dashboard executivo",
			"Integrações personalizadas",
			"White-label completo (marca própria)",
			"Treinamento completo da equipe",
		},
	},
}

// Plans returns a copy of the catalog in display order.
func Plans() []Plan {
	out := make([]Plan, len(catalog))
	for i, p := range catalog {
		p.Features = append([]string(nil), p.Features...)
		out[i] = p
	}
	return out
}

// LookupPlan finds a plan by its exact name.
func LookupPlan(name string) (Plan, bool) {
	for _, p := range catalog {
		if p.Name == name {
			p.Features = append([]string(nil), p.Features...)
			return p, true
		}
	}
	return Plan{}, false
}
