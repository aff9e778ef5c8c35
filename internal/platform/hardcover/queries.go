package hardcover

import (
	"strconv"
	"strings"
)

const bookFields = `
      book_id
      updated_at
      rating
      status_id
      review
      review_raw
      book {
        title
        description
        release_date
        slug
        cached_image
        cached_contributors
        cached_tags
        book_series {
          position
          series {
            name
          }
        }
      }
      edition {
        title
        release_date
        cached_image
        cached_contributors
        isbn_10
        isbn_13
        publisher {
          name
        }
      }
      user_book_reads(order_by: {started_at: asc}) {
        started_at
        finished_at
      }
      reading_journals(where: {event: {_eq: "quote"}}, order_by: {created_at: asc}) {
        entry
      }`

// userBooksQuery declares only the filter variables that will be sent.
func userBooksQuery(withUpdatedAfter, withStatus bool) string {
	vars := []string{"$userId: Int!", "$offset: Int!", "$limit: Int!"}
	where := []string{"user_id: {_eq: $userId}"}
	if withUpdatedAfter {
		vars = append(vars, "$updatedAfter: timestamptz!")
		where = append(where, "updated_at: {_gt: $updatedAfter}")
	}
	if withStatus {
		vars = append(vars, "$statusIds: [Int!]!")
		where = append(where, "status_id: {_in: $statusIds}")
	}

	var b strings.Builder
	b.WriteString("query UserBooks(" + strings.Join(vars, ", ") + ") {\n")
	b.WriteString("  user_books(\n")
	b.WriteString("    where: {" + strings.Join(where, ", ") + "}\n")
	b.WriteString("    order_by: {id: asc}\n")
	b.WriteString("    offset: $offset\n")
	b.WriteString("    limit: $limit\n")
	b.WriteString("  ) {")
	b.WriteString(bookFields)
	b.WriteString("\n  }\n}")
	return b.String()
}

// syncInfoQuery resolves identity, filtered count and optionally lists in a
// single round trip.
func syncInfoQuery(includeLists bool, statusIDs []int) string {
	aggregateWhere := ""
	if len(statusIDs) > 0 {
		ids := make([]string, len(statusIDs))
		for i, id := range statusIDs {
			ids[i] = strconv.Itoa(id)
		}
		aggregateWhere = "(where: {status_id: {_in: [" + strings.Join(ids, ",") + "]}})"
	}

	lists := ""
	if includeLists {
		lists = `
    lists {
      name
      list_books {
        book_id
      }
    }`
	}

	return `query GetSyncInfo {
  me {
    id
    user_books_aggregate` + aggregateWhere + ` {
      aggregate {
        count
      }
    }` + lists + `
  }
}`
}

const booksCountQuery = `query GetBooksCount($userId: Int!) {
  user_books_aggregate(where: {user_id: {_eq: $userId}}) {
    aggregate {
      count
    }
  }
}`

const userListsQuery = `query GetUserLists($userId: Int!) {
  users_by_pk(id: $userId) {
    lists {
      name
      list_books {
        book_id
      }
    }
  }
}`

const userIDQuery = `query GetUserId {
  me {
    id
  }
}`
