package sqlinline

const QInsertActiveSubscription = `--sql 3f1c7a92-5d04-4b6e-9a31-8c2e64d10f57
insert into subscriptions (
    id, account_id, plan_id, status, start_at, end_at, next_payment_at,
    trial_end_at, data_retention_end_at, payment_status, is_trial, created_at
)
select
    $1::uuid, $2::text, $3::text, 'active', $4::timestamptz, $5::timestamptz,
    $6::timestamptz, $7::timestamptz, $8::timestamptz, $9::text, $10::boolean,
    $11::timestamptz
where not exists (
    select 1 from subscriptions
    where account_id = $2::text and status = 'active'
);
`

const QTransitionFromActive = `--sql 84b20de1-96c7-4f38-b2aa-07d94c35e8c1
update subscriptions
set status = $2::text,
    end_at = $3::timestamptz
where id = $1::uuid
  and status = 'active';
`

const subscriptionColumns = `
    id, account_id, plan_id, status, start_at, end_at, next_payment_at,
    trial_end_at, data_retention_end_at, payment_status, is_trial, created_at`

const QSelectActiveByAccount = `--sql c5e9a034-1b72-48d6-8ef0-52a86b97d413
select` + subscriptionColumns + `
from subscriptions
where account_id = $1::text and status = 'active'
order by created_at desc
limit 1;
`

const QSelectLatestByAccount = `--sql 7a46f2b8-30c1-49e5-bd27-f190e8a6c345
select` + subscriptionColumns + `
from subscriptions
where account_id = $1::text
order by created_at desc
limit 1;
`

const QSelectSubscriptionByID = `--sql 0d93bc57-62ae-4701-95c8-3e7fa1d08b26
select` + subscriptionColumns + `
from subscriptions
where id = $1::uuid
limit 1;
`

// Expired trial grants whose identity has not been blocked yet. The ledger
// condition keeps a sweep pass bounded: once an identity is blocked the grant
// stops matching, and a failed ledger write simply matches again next pass.
const QSelectExpiredTrials = `--sql b7f05c38-9ad1-4e62-8304-61c2d5be97a0
select` + subscriptionColumns + `
from subscriptions s
left join trial_ledger l on l.account_id = s.account_id
where s.is_trial
  and s.end_at < $1::timestamptz
  and coalesce(l.blocked, false) = false
order by s.end_at;
`
