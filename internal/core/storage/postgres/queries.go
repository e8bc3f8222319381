package postgres

// SQL queries for sales and user storage.

const (
	// queryInsertSale appends one sales fact. RETURNING retrieves the
	// store-assigned id so callers can hand it back to clients.
	queryInsertSale = `
		INSERT INTO sales_data (date, revenue, ad_spend, store_id, user_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	queryListSales = `
		SELECT id, date, revenue, ad_spend, store_id, user_id
		FROM sales_data
		ORDER BY id ASC
	`

	// queryAggregateTotals sums both metrics in a single scan.
	// COALESCE maps the empty-table NULL sums to zero.
	queryAggregateTotals = `
		SELECT
			COALESCE(SUM(revenue), 0),
			COALESCE(SUM(ad_spend), 0)
		FROM sales_data
	`

	// queryTopUsersByRevenue ranks users by summed revenue.
	// Secondary order on u.id keeps revenue ties deterministic.
	queryTopUsersByRevenue = `
		SELECT u.id, u.email, COALESCE(SUM(s.revenue), 0) AS total_revenue
		FROM sales_data s
		JOIN users u ON u.id = s.user_id
		GROUP BY u.id, u.email
		ORDER BY total_revenue DESC, u.id ASC
		LIMIT $1
	`

	queryTopUsersWithSpend = `
		SELECT s.user_id,
		       COALESCE(SUM(s.revenue), 0)  AS total_revenue,
		       COALESCE(SUM(s.ad_spend), 0) AS total_ad_spend
		FROM sales_data s
		GROUP BY s.user_id
		ORDER BY total_revenue DESC, s.user_id ASC
		LIMIT $1
	`

	queryMonthlyTotals = `
		SELECT date_trunc('month', date)::date AS month,
		       COALESCE(SUM(revenue), 0),
		       COALESCE(SUM(ad_spend), 0)
		FROM sales_data
		GROUP BY month
		ORDER BY month ASC
	`

	queryAverageDailyRevenue = `
		SELECT COALESCE(AVG(day_revenue), 0)
		FROM (
			SELECT SUM(revenue) AS day_revenue
			FROM sales_data
			GROUP BY date
		) daily
	`

	queryCountAll = `SELECT COUNT(*) FROM sales_data`

	queryCountSince = `SELECT COUNT(*) FROM sales_data WHERE date >= $1`

	queryInsertStore = `
		INSERT INTO stores (name, owner_id)
		VALUES ($1, $2)
		RETURNING id
	`

	// queryCreateUser relies on ON CONFLICT DO NOTHING returning no rows
	// (sql.ErrNoRows) to signal a duplicate email.
	queryCreateUser = `
		INSERT INTO users (email, hashed_password)
		VALUES ($1, $2)
		ON CONFLICT (email) DO NOTHING
		RETURNING id
	`

	queryGetUserByEmail = `
		SELECT id, email, hashed_password
		FROM users
		WHERE email = $1
	`

	queryCountUsers = `SELECT COUNT(*) FROM users`

	// querySchemaCheck verifies the migrated schema is in place before any
	// statement is prepared against it.
	querySchemaCheck = `
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_name = 'sales_data'
		)
	`
)
