// Package entitlement решает, доступна ли функция продукта роли.
//
// Таблица ролей задаётся данными (DefaultTable или секция entitlements
// конфига). Правила вне таблицы фиксированы: администратор получает всё,
// нераспознанная роль обслуживается строкой "user", неизвестная функция
// запрещена всем, кроме администратора.
package entitlement

import (
	"sort"

	"github.com/fairwaylab/swingcoach/internal/models"
	"github.com/fairwaylab/swingcoach/internal/plans"
)

// Функции продукта.
const (
	FeatureSwingAnalysis     = "swing-analysis"
	FeatureAnalysisHistory   = "analysis-history"
	FeatureProComparison     = "pro-comparison"
	FeatureAICoaching        = "ai-coaching"
	FeatureBatchAnalysis     = "batch-analysis"
	FeatureStudentManagement = "student-management"
	FeatureTeamReports       = "team-reports"
	FeatureAPIAccess         = "api-access"
)

// Table — список функций для каждой роли.
type Table map[models.Role][]string

// DefaultTable возвращает таблицу доступа продукта.
func DefaultTable() Table {
	individual := []string{FeatureSwingAnalysis, FeatureAnalysisHistory, FeatureProComparison}
	return Table{
		models.RoleUser: {FeatureSwingAnalysis},
		models.RolePro:  append(individual[:3:3], FeatureAICoaching),
		models.RoleElite: append(individual[:3:3],
			FeatureAICoaching, FeatureBatchAnalysis),
		models.RoleClubStarter: append(individual[:3:3],
			FeatureAICoaching, FeatureStudentManagement),
		models.RoleClubPro: append(individual[:3:3],
			FeatureAICoaching, FeatureBatchAnalysis, FeatureStudentManagement, FeatureTeamReports),
		models.RoleClubEnterprise: append(individual[:3:3],
			FeatureAICoaching, FeatureBatchAnalysis, FeatureStudentManagement, FeatureTeamReports, FeatureAPIAccess),
	}
}

// Resolver — неизменяемая после создания таблица доступа.
// Безопасен для конкурентного использования.
type Resolver struct {
	table   map[models.Role]map[string]struct{}
	catalog *plans.Catalog
}

// NewResolver копирует таблицу во внутренние множества.
// Строка для admin, если есть, игнорируется.
func NewResolver(t Table, catalog *plans.Catalog) *Resolver {
	r := &Resolver{
		table:   make(map[models.Role]map[string]struct{}, len(t)),
		catalog: catalog,
	}
	for role, features := range t {
		if role == models.RoleAdmin {
			continue
		}
		set := make(map[string]struct{}, len(features))
		for _, f := range features {
			set[f] = struct{}{}
		}
		r.table[role] = set
	}
	return r
}

// CanAccess сообщает, доступна ли функция роли.
func (r *Resolver) CanAccess(role models.Role, feature string) bool {
	if role == models.RoleAdmin {
		return true
	}
	set, ok := r.table[role]
	if !ok {
		set = r.table[models.RoleUser]
	}
	_, allowed := set[feature]
	return allowed
}

// CanAccessRaw принимает роль строкой, например claim из чужого токена.
func (r *Resolver) CanAccessRaw(role, feature string) bool {
	return r.CanAccess(models.ParseRole(role), feature)
}

// Features возвращает отсортированный список функций роли.
// Для администратора это объединение всех известных функций.
func (r *Resolver) Features(role models.Role) []string {
	set := make(map[string]struct{})
	switch {
	case role == models.RoleAdmin:
		for _, fs := range r.table {
			for f := range fs {
				set[f] = struct{}{}
			}
		}
	default:
		fs, ok := r.table[role]
		if !ok {
			fs = r.table[models.RoleUser]
		}
		for f := range fs {
			set[f] = struct{}{}
		}
	}

	out := make([]string, 0, len(set))
	for f := range set {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// FeaturesForPlan возвращает функции, которые откроет покупка плана.
func (r *Resolver) FeaturesForPlan(planName string) ([]string, bool) {
	if r.catalog == nil {
		return nil, false
	}
	p, ok := r.catalog.Lookup(planName)
	if !ok {
		return nil, false
	}
	return r.Features(p.Role), true
}
