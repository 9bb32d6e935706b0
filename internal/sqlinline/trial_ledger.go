package sqlinline

const QRecordTrialIdentity = `--sql e2a84f61-0c3b-4d97-a852-19b6e43c07d8
insert into trial_ledger (account_id, email, phone, blocked, created_at)
values ($1::text, $2::text, $3::text, false, $4::timestamptz)
on conflict (account_id) do nothing;
`

const QBlockTrialIdentity = `--sql 5c07d9ea-41f8-4b23-96d0-8a35c1e27f64
insert into trial_ledger (account_id, email, phone, blocked, blocked_at, created_at)
values ($1::text, '', '', true, $2::timestamptz, $2::timestamptz)
on conflict (account_id) do update
set blocked = true,
    blocked_at = coalesce(trial_ledger.blocked_at, excluded.blocked_at);
`

const QSelectIdentityBlocked = `--sql 9b61e085-73dc-4f2a-8741-c0d5a92e36bf
select exists (
    select 1 from trial_ledger
    where blocked
      and (($1::text <> '' and email = $1::text)
        or ($2::text <> '' and phone = $2::text))
);
`

const QSelectLedgerByAccount = `--sql 48d2c7f3-a951-4e08-b6d3-27e09c184a5b
select account_id, email, phone, blocked, blocked_at, created_at
from trial_ledger
where account_id = $1::text
limit 1;
`
