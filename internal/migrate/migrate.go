package migrate

import (
	"context"

	"bagshop/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type MigrateOptions struct {
	CreateExtensions       bool // pgcrypto для gen_random_uuid()
	CreateChecks           bool // CHECK-constraint для целостности
	CreateIndexes          bool // индексы и UNIQUE
	CreateFKsViaSQL        bool // FK через SQL (поверх GORM-constraint)
	CreateUpdatedAtTrigger bool // триггер обновления updated_at
}

func DefaultMigrateOptions() MigrateOptions {
	return MigrateOptions{
		CreateExtensions:       true,
		CreateChecks:           true,
		CreateIndexes:          true,
		CreateFKsViaSQL:        true,
		CreateUpdatedAtTrigger: true,
	}
}

type step struct {
	name string
	sql  string
}

func MigrateShopDB(ctx context.Context, db *gorm.DB, log *zap.Logger, opt MigrateOptions) error {
	db = db.WithContext(ctx)
	log.Info("Начало миграции базы магазина")

	if opt.CreateExtensions {
		log.Info("Создание расширений PostgreSQL")
		if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
			log.Error("Не удалось включить расширение pgcrypto", zap.Error(err))
			return err
		}
	}

	log.Info("Создание таблиц customers, categories, products, orders, order_items")
	if err := db.AutoMigrate(
		&models.Customer{},
		&models.Category{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
	); err != nil {
		log.Error("Не удалось создать таблицы", zap.Error(err))
		return err
	}
	log.Info("Таблицы успешно созданы")

	if opt.CreateUpdatedAtTrigger {
		log.Info("Создание триггеров updated_at")
		if err := db.Exec(`
CREATE OR REPLACE FUNCTION set_updated_at() RETURNS trigger AS $$
BEGIN NEW.updated_at = now(); RETURN NEW; END; $$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS trg_customers_updated ON customers;
CREATE TRIGGER trg_customers_updated BEFORE UPDATE ON customers
FOR EACH ROW EXECUTE FUNCTION set_updated_at();

DROP TRIGGER IF EXISTS trg_categories_updated ON categories;
CREATE TRIGGER trg_categories_updated BEFORE UPDATE ON categories
FOR EACH ROW EXECUTE FUNCTION set_updated_at();

DROP TRIGGER IF EXISTS trg_products_updated ON products;
CREATE TRIGGER trg_products_updated BEFORE UPDATE ON products
FOR EACH ROW EXECUTE FUNCTION set_updated_at();

DROP TRIGGER IF EXISTS trg_orders_updated ON orders;
CREATE TRIGGER trg_orders_updated BEFORE UPDATE ON orders
FOR EACH ROW EXECUTE FUNCTION set_updated_at();
`).Error; err != nil {
			log.Error("Не удалось создать триггеры updated_at", zap.Error(err))
			return err
		}
	}

	if opt.CreateChecks {
		log.Info("Создание CHECK-ограничений")
		if err := run(db, log, checkSteps); err != nil {
			return err
		}
	}

	if opt.CreateIndexes {
		log.Info("Создание индексов")
		if err := run(db, log, indexSteps); err != nil {
			return err
		}
	}

	if opt.CreateFKsViaSQL {
		log.Info("Создание внешних ключей")
		if err := run(db, log, fkSteps); err != nil {
			return err
		}
	}

	log.Info("Миграция базы магазина успешно завершена")
	return nil
}

func run(db *gorm.DB, log *zap.Logger, steps []step) error {
	for _, s := range steps {
		if err := db.Exec(s.sql).Error; err != nil {
			log.Error("Шаг миграции не выполнен", zap.String("step", s.name), zap.Error(err))
			return err
		}
	}
	return nil
}

var checkSteps = []step{
	{"chk_products_stock_non_negative", `
ALTER TABLE products DROP CONSTRAINT IF EXISTS chk_products_stock_non_negative;
ALTER TABLE products ADD CONSTRAINT chk_products_stock_non_negative CHECK (stock_quantity >= 0);`},
	{"chk_products_price_non_negative", `
ALTER TABLE products DROP CONSTRAINT IF EXISTS chk_products_price_non_negative;
ALTER TABLE products ADD CONSTRAINT chk_products_price_non_negative CHECK (price >= 0);`},
	{"chk_products_weight_non_negative", `
ALTER TABLE products DROP CONSTRAINT IF EXISTS chk_products_weight_non_negative;
ALTER TABLE products ADD CONSTRAINT chk_products_weight_non_negative CHECK (weight_kg IS NULL OR weight_kg >= 0);`},
	{"chk_orders_status_allowed", `
ALTER TABLE orders DROP CONSTRAINT IF EXISTS chk_orders_status_allowed;
ALTER TABLE orders ADD CONSTRAINT chk_orders_status_allowed
  CHECK (status IN ('Pending','Processing','Shipped','Completed','Cancelled','Refunded','Failed'));`},
	{"chk_orders_currency_code_len", `
ALTER TABLE orders DROP CONSTRAINT IF EXISTS chk_orders_currency_code_len;
ALTER TABLE orders ADD CONSTRAINT chk_orders_currency_code_len CHECK (char_length(currency_code) = 3);`},
	{"chk_orders_country_codes_len", `
ALTER TABLE orders DROP CONSTRAINT IF EXISTS chk_orders_country_codes_len;
ALTER TABLE orders ADD CONSTRAINT chk_orders_country_codes_len
  CHECK (char_length(shipping_country_code) = 2 AND char_length(billing_country_code) = 2);`},
	{"chk_orders_total_positive", `
ALTER TABLE orders DROP CONSTRAINT IF EXISTS chk_orders_total_positive;
ALTER TABLE orders ADD CONSTRAINT chk_orders_total_positive CHECK (total_amount > 0);`},
	{"chk_order_items_quantity_gt_zero", `
ALTER TABLE order_items DROP CONSTRAINT IF EXISTS chk_order_items_quantity_gt_zero;
ALTER TABLE order_items ADD CONSTRAINT chk_order_items_quantity_gt_zero CHECK (quantity > 0);`},
	{"chk_order_items_total_price", `
ALTER TABLE order_items DROP CONSTRAINT IF EXISTS chk_order_items_total_price;
ALTER TABLE order_items ADD CONSTRAINT chk_order_items_total_price
  CHECK (unit_price >= 0 AND total_price = unit_price * quantity);`},
}

var indexSteps = []step{
	{"ux_customers_email_lower", `CREATE UNIQUE INDEX IF NOT EXISTS ux_customers_email_lower ON customers (lower(email));`},
	{"ux_products_sku_lower", `CREATE UNIQUE INDEX IF NOT EXISTS ux_products_sku_lower ON products (lower(sku));`},
	// заказы покупателя по дате
	{"ix_orders_customer_date", `CREATE INDEX IF NOT EXISTS ix_orders_customer_date ON orders (customer_id, order_date DESC);`},
	// админка: фильтр по статусу
	{"ix_orders_status_date", `CREATE INDEX IF NOT EXISTS ix_orders_status_date ON orders (status, order_date DESC);`},
	{"ix_products_category_active", `CREATE INDEX IF NOT EXISTS ix_products_category_active ON products (category_id, is_active);`},
}

var fkSteps = []step{
	{"fk_order_items_order", `
ALTER TABLE order_items
  DROP CONSTRAINT IF EXISTS fk_order_items_order,
  ADD CONSTRAINT fk_order_items_order
    FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE;`},
	{"fk_order_items_product_set_null", `
ALTER TABLE order_items
  DROP CONSTRAINT IF EXISTS fk_order_items_product_set_null,
  ADD CONSTRAINT fk_order_items_product_set_null
    FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE SET NULL;`},
	{"fk_orders_customer", `
ALTER TABLE orders
  DROP CONSTRAINT IF EXISTS fk_orders_customer,
  ADD CONSTRAINT fk_orders_customer
    FOREIGN KEY (customer_id) REFERENCES customers(id) ON DELETE RESTRICT;`},
	{"fk_products_category_set_null", `
ALTER TABLE products
  DROP CONSTRAINT IF EXISTS fk_products_category_set_null,
  ADD CONSTRAINT fk_products_category_set_null
    FOREIGN KEY (category_id) REFERENCES categories(id) ON DELETE SET NULL;`},
	{"fk_categories_parent", `
ALTER TABLE categories
  DROP CONSTRAINT IF EXISTS fk_categories_parent,
  ADD CONSTRAINT fk_categories_parent
    FOREIGN KEY (parent_id) REFERENCES categories(id) ON DELETE RESTRICT;`},
}
