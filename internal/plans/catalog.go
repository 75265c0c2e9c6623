// Package plans содержит каталог тарифов: какой план какую роль даёт,
// сколько стоит и для кого предназначен. Каталог используется и
// журналом оплат, и резолвером доступа вместо сравнения строк.
package plans

import (
	"errors"
	"sort"
	"strings"

	"github.com/fairwaylab/swingcoach/internal/models"
)

// ErrUnknownPlan — плана нет в каталоге.
var ErrUnknownPlan = errors.New("unknown plan")

// Audience — целевая аудитория плана.
type Audience string

const (
	AudienceIndividual Audience = "individual"
	AudienceClub       Audience = "club"
)

// Plan описывает один тариф.
type Plan struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Role     models.Role `json:"role"`
	Price    int64       `json:"price"` // в целых единицах валюты
	Audience Audience    `json:"audience"`
}

// IsClub сообщает, требует ли план название клуба.
func (p Plan) IsClub() bool {
	return p.Audience == AudienceClub
}

// Catalog — неизменяемый набор планов с поиском по id и названию.
type Catalog struct {
	plans []Plan
	byKey map[string]Plan
}

// New строит каталог. Порядок планов сохраняется для выдачи.
func New(list []Plan) *Catalog {
	c := &Catalog{
		plans: make([]Plan, 0, len(list)),
		byKey: make(map[string]Plan, len(list)*2),
	}
	for _, p := range list {
		c.plans = append(c.plans, p)
		c.byKey[normalize(p.ID)] = p
		c.byKey[normalize(p.Name)] = p
	}
	return c
}

// Default возвращает каталог продукта.
func Default() *Catalog {
	return New([]Plan{
		{ID: "pro", Name: "Pro Core", Role: models.RolePro, Price: 29900, Audience: AudienceIndividual},
		{ID: "elite", Name: "Elite Performance", Role: models.RoleElite, Price: 59900, Audience: AudienceIndividual},
		{ID: "club_starter", Name: "Club Starter", Role: models.RoleClubStarter, Price: 199000, Audience: AudienceClub},
		{ID: "club_pro", Name: "Club Pro", Role: models.RoleClubPro, Price: 499000, Audience: AudienceClub},
		{ID: "club_enterprise", Name: "Club Enterprise", Role: models.RoleClubEnterprise, Price: 990000, Audience: AudienceClub},
	})
}

// Lookup ищет план по id или отображаемому названию без учёта регистра,
// пробелов и дефисов: "Pro Core", "pro-core" и "pro" находят один план.
func (c *Catalog) Lookup(nameOrID string) (Plan, bool) {
	p, ok := c.byKey[normalize(nameOrID)]
	return p, ok
}

// All возвращает копию списка планов.
func (c *Catalog) All() []Plan {
	out := make([]Plan, len(c.plans))
	copy(out, c.plans)
	return out
}

// ForRole возвращает планы, выдающие роль r, отсортированные по цене.
func (c *Catalog) ForRole(r models.Role) []Plan {
	var out []Plan
	for _, p := range c.plans {
		if p.Role == r {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	return out
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	return s
}
