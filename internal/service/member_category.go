package service

import (
	"strings"

	"github.com/DeadshotOMEGA/sentinel-sub002/internal/model"
)

// 模拟用成员分类
const (
	CategoryFTS        = "fts"
	CategoryFTSEDT     = "fts_edt"
	CategoryReserve    = "reserve"
	CategoryReserveEDT = "reserve_edt"
	CategoryBMQStudent = "bmq_student"
)

// AllCategories 分类的固定顺序
var AllCategories = []string{CategoryFTS, CategoryFTSEDT, CategoryReserve, CategoryReserveEDT, CategoryBMQStudent}

// CategorizedMember 分类后的在册成员
type CategorizedMember struct {
	ID            string
	ServiceNumber string
	FirstName     string
	LastName      string
	Rank          string
	DivisionID    string
	BadgeID       *string
	MemberType    string
	Category      string
}

// CategorizeMember 对成员分类，任何输入都恰好落入一个分类
//
// 规则：
//  1. 属于 BMQ 部门 → bmq_student（bmqDivisionID 为空时不匹配）
//  2. class_b / reg_force 且为 CHW → fts，ED&T 时 fts_edt
//  3. 其余 → reserve，ED&T 时 reserve_edt
//
// IsChw / IsEdt 显式属性优先；为空时对 notes / class_details 做不区分大小写的子串匹配
func CategorizeMember(m *model.Member, bmqDivisionID string) string {
	if bmqDivisionID != "" && m.DivisionID != nil && *m.DivisionID == bmqDivisionID {
		return CategoryBMQStudent
	}

	isCHW := flagOrContains(m.IsChw, m.Notes, "CHW")
	isEDT := flagOrContains(m.IsEdt, m.ClassDetails, "ED&T")

	if (m.MemberType == model.MemberTypeClassB || m.MemberType == model.MemberTypeRegForce) && isCHW {
		if isEDT {
			return CategoryFTSEDT
		}
		return CategoryFTS
	}
	if isEDT {
		return CategoryReserveEDT
	}
	return CategoryReserve
}

func flagOrContains(flag *bool, text *string, needle string) bool {
	if flag != nil {
		return *flag
	}
	if text == nil {
		return false
	}
	return strings.Contains(strings.ToUpper(*text), needle)
}

func categorizeMembers(members []model.Member, bmqDivisionID string) []CategorizedMember {
	result := make([]CategorizedMember, 0, len(members))
	for i := range members {
		m := &members[i]
		divisionID := ""
		if m.DivisionID != nil {
			divisionID = *m.DivisionID
		}
		result = append(result, CategorizedMember{
			ID:            m.ID,
			ServiceNumber: m.ServiceNumber,
			FirstName:     m.FirstName,
			LastName:      m.LastName,
			Rank:          m.Rank,
			DivisionID:    divisionID,
			BadgeID:       m.BadgeID,
			MemberType:    m.MemberType,
			Category:      CategorizeMember(m, bmqDivisionID),
		})
	}
	return result
}
