// gib/handlers/pagination.go
package handlers

import (
	"gib/models"
)

// paginate converts a requested page number and a total row count into a
// bounded pagination state. Non-positive or unparsed page numbers clamp
// to 1. OutOfRange means the caller must redirect to TotalPages; it only
// fires for non-empty listings, so an empty board renders page 1 for any
// requested page.
func paginate(requested, totalItems, pageSize int) models.Pagination {
	page := requested
	if page < 1 {
		page = 1
	}

	totalPages := (totalItems + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}

	outOfRange := totalItems > 0 && page > totalPages
	if outOfRange {
		page = totalPages
	}

	return models.Pagination{
		Page:       page,
		TotalPages: totalPages,
		TotalItems: totalItems,
		PageSize:   pageSize,
		Offset:     (page - 1) * pageSize,
		OutOfRange: outOfRange,
	}
}

// generatePageLinks creates the list of page links for the UI.
func generatePageLinks(currentPage, totalPages int) []models.Page {
	if totalPages <= 1 {
		return nil
	}

	const pagesToShow = 2

	var pages []models.Page

	start := currentPage - pagesToShow
	end := currentPage + pagesToShow

	if start < 1 {
		end += (1 - start)
		start = 1
	}

	if end > totalPages {
		start -= (end - totalPages)
		end = totalPages
	}

	if start < 1 {
		start = 1
	}

	if start > 1 {
		pages = append(pages, models.Page{Number: 1})
		if start > 2 {
			pages = append(pages, models.Page{IsEllipsis: true})
		}
	}

	for i := start; i <= end; i++ {
		pages = append(pages, models.Page{Number: i, IsCurrent: i == currentPage})
	}

	if end < totalPages {
		if end < totalPages-1 {
			pages = append(pages, models.Page{IsEllipsis: true})
		}
		pages = append(pages, models.Page{Number: totalPages})
	}

	return pages
}
